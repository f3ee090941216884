package typeparser

import "strings"

// Family 是数据库列类型归类后的语义类型
type Family string

const (
	FamilyInteger   Family = "integer"
	FamilyNumeric   Family = "numeric"
	FamilyTimeOfDay Family = "time"
	FamilyTimestamp Family = "datetime"
	FamilyDate      Family = "date"
	FamilyBoolean   Family = "boolean"
	FamilyText      Family = "string"
	FamilyJSON      Family = "json"
	FamilyUnknown   Family = "unknown"
)

// 各个驱动 ColumnType.DatabaseTypeName 返回的名字并不统一
// PostgreSQL: INT4, NUMERIC, TIMESTAMPTZ
// MySQL: INT, DECIMAL, DATETIME
// SQLite: 建表时声明的类型, 如 INTEGER, TEXT
var families = map[string]Family{
	"INT":       FamilyInteger,
	"INT2":      FamilyInteger,
	"INT4":      FamilyInteger,
	"INT8":      FamilyInteger,
	"INTEGER":   FamilyInteger,
	"SMALLINT":  FamilyInteger,
	"MEDIUMINT": FamilyInteger,
	"BIGINT":    FamilyInteger,
	"TINYINT":   FamilyInteger,
	"SERIAL":    FamilyInteger,
	"BIGSERIAL": FamilyInteger,
	"OID":       FamilyInteger,

	"NUMERIC": FamilyNumeric,
	"DECIMAL": FamilyNumeric,
	"MONEY":   FamilyNumeric,
	"FLOAT":   FamilyNumeric,
	"FLOAT4":  FamilyNumeric,
	"FLOAT8":  FamilyNumeric,
	"DOUBLE":  FamilyNumeric,
	"REAL":    FamilyNumeric,

	"TIME":   FamilyTimeOfDay,
	"TIMETZ": FamilyTimeOfDay,

	"TIMESTAMP":   FamilyTimestamp,
	"TIMESTAMPTZ": FamilyTimestamp,
	"DATETIME":    FamilyTimestamp,

	"DATE": FamilyDate,

	"BOOL":    FamilyBoolean,
	"BOOLEAN": FamilyBoolean,
	"BIT":     FamilyBoolean,

	"JSON":  FamilyJSON,
	"JSONB": FamilyJSON,

	"TEXT":     FamilyText,
	"VARCHAR":  FamilyText,
	"CHAR":     FamilyText,
	"BPCHAR":   FamilyText,
	"NAME":     FamilyText,
	"UUID":     FamilyText,
	"CITEXT":   FamilyText,
	"NVARCHAR": FamilyText,
}

// Classify 把数据库类型名映射为语义类型
func Classify(typeName string) Family {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	// 去掉长度和精度, 如 VARCHAR(20), NUMERIC(10,2)
	if idx := strings.IndexByte(name, '('); idx > 0 {
		name = strings.TrimSpace(name[:idx])
	}
	// MySQL 的 unsigned 类型, 如 UNSIGNED INT
	name = strings.TrimPrefix(name, "UNSIGNED ")
	if f, ok := families[name]; ok {
		return f
	}
	switch {
	case strings.HasPrefix(name, "TIMESTAMP"):
		return FamilyTimestamp
	case strings.HasPrefix(name, "TIME"):
		return FamilyTimeOfDay
	case strings.Contains(name, "INT"):
		return FamilyInteger
	case strings.Contains(name, "CHAR"), strings.Contains(name, "TEXT"):
		return FamilyText
	}
	return FamilyUnknown
}
