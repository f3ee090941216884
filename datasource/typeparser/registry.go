// Package typeparser 把数据库返回的原始列值解码为 Go 值
package typeparser

import (
	"strings"
	"sync"
)

// Parser 把驱动扫描出来的原始值转换为 Go 值
// src 一定不是 nil, nil 在 Registry 里面已经处理了
type Parser func(src any) (any, error)

type Option func(r *Registry)

// WithParser 按数据库类型名注册解析器, 会覆盖内置的解析器
func WithParser(typeName string, p Parser) Option {
	return func(r *Registry) {
		r.byName[strings.ToUpper(typeName)] = p
	}
}

// WithFamilyParser 按语义类型注册解析器
func WithFamilyParser(f Family, p Parser) Option {
	return func(r *Registry) {
		r.byFamily[f] = p
	}
}

// Registry 在创建之后就是只读的, 所以并发读不需要加锁
type Registry struct {
	byName   map[string]Parser
	byFamily map[Family]Parser
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byName: make(map[string]Parser, 8),
		byFamily: map[Family]Parser{
			FamilyInteger:   parseInteger,
			FamilyNumeric:   parseNumeric,
			FamilyTimeOfDay: parseTimeOfDay,
			FamilyTimestamp: parseTimestamp,
			FamilyDate:      parseTimestamp,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default 返回进程级别的注册中心, 只会初始化一次
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func (r *Registry) Parse(typeName string, src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	if p, ok := r.byName[strings.ToUpper(typeName)]; ok {
		return p(src)
	}
	if p, ok := r.byFamily[Classify(typeName)]; ok {
		return p(src)
	}
	return parseDefault(src)
}
