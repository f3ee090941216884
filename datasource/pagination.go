package datasource

import (
	"strconv"
)

const DefaultPageSize = 10

type Pagination struct {
	PageSize  int `json:"pageSize"`
	PageIndex int `json:"pageIndex"`
	// Offset 由 PageSize 和 PageIndex 算出来, 调用方不需要设置
	Offset      int  `json:"offset"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

func (p *Pagination) clone() *Pagination {
	if p == nil {
		return nil
	}
	res := *p
	return &res
}

// initializeDefault 分页查询没有指定分页参数的时候, 使用默认值
func initializeDefault(q *SelectQuery, pageSize int) {
	if !q.Lazy || q.Pagination != nil {
		return
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q.Pagination = &Pagination{PageSize: pageSize}
}

// paginationClause 生成 LIMIT OFFSET 片段
// 跳到最后一页的时候需要总数, 并且会修改页码
func paginationClause(q *SelectQuery, total *int64) (string, error) {
	p := q.Pagination
	if !q.Lazy || p == nil {
		return "", nil
	}
	if p.PageSize <= 0 {
		return "", ErrInvalidPageSize
	}
	p.Offset = p.PageSize * p.PageIndex
	if q.JumpToLast && total != nil {
		pages, err := TotalPages(*total, p.PageSize)
		if err != nil {
			return "", err
		}
		p.PageIndex = 0
		if pages > 0 {
			p.PageIndex = pages - 1
		}
		p.Offset = p.PageIndex * p.PageSize
	}
	return " LIMIT " + strconv.Itoa(p.PageSize) + " OFFSET " + strconv.Itoa(p.Offset), nil
}

func TotalPages(total int64, pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, ErrInvalidPageSize
	}
	size := int64(pageSize)
	return int((total + size - 1) / size), nil
}

// setMeta 根据总数计算页数以及前后页
func (p *Pagination) setMeta(total int64) error {
	pages, err := TotalPages(total, p.PageSize)
	if err != nil {
		return err
	}
	p.TotalPages = pages
	p.HasPrevious = p.PageIndex > 0
	p.HasNext = p.PageIndex+1 < pages
	return nil
}
