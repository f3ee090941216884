package datasource

import (
	"database/sql"

	"github.com/startdusk/erp-datasource/datasource/typeparser"
)

// ColumnMeta 结果集里面一列的元数据, 给前端渲染用, 不会持久化
type ColumnMeta struct {
	Name string `json:"name"`
	// DBType 数据库返回的类型名, 例如 NUMERIC, VARCHAR
	DBType    string            `json:"dbType"`
	Type      typeparser.Family `json:"type"`
	Align     string            `json:"align"`
	Default   any               `json:"default"`
	Component string            `json:"component"`
	Nullable  bool              `json:"nullable"`
	Visible   bool              `json:"visible"`
}

// columnMetadata 根据驱动的字段描述生成列的元数据
// 约定第一列是主键, 不显示
func columnMetadata(cols []*sql.ColumnType) []ColumnMeta {
	res := make([]ColumnMeta, 0, len(cols))
	for i, col := range cols {
		dbType := col.DatabaseTypeName()
		family := typeparser.Classify(dbType)
		meta := ColumnMeta{
			Name:    col.Name(),
			DBType:  dbType,
			Type:    family,
			Visible: i > 0,
		}
		meta.Nullable, _ = col.Nullable()
		switch family {
		case typeparser.FamilyInteger, typeparser.FamilyNumeric:
			meta.Align, meta.Component, meta.Default = "right", "number", 0
		case typeparser.FamilyBoolean:
			meta.Align, meta.Component, meta.Default = "center", "checkbox", false
		case typeparser.FamilyDate:
			meta.Align, meta.Component = "center", "date"
		case typeparser.FamilyTimestamp:
			meta.Align, meta.Component = "center", "datetime"
		case typeparser.FamilyTimeOfDay:
			meta.Align, meta.Component = "center", "time"
		case typeparser.FamilyJSON:
			meta.Align, meta.Component = "left", "json"
		default:
			meta.Align, meta.Component, meta.Default = "left", "text", ""
		}
		res = append(res, meta)
	}
	return res
}
