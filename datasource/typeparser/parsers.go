package typeparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay 对应没有日期部分的 TIME 列
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func (t TimeOfDay) String() string {
	if t.Nanosecond == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond), "0")
	return fmt.Sprintf("%02d:%02d:%02d.%s", t.Hour, t.Minute, t.Second, frac)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// ParseTimeOfDay 解析 15:04:05, 15:04:05.123456 以及带时区偏移的 15:04:05+02
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	// 丢掉时区偏移, 时区偏移出现在 HH:MM 之后
	if len(s) > 5 {
		if idx := strings.IndexAny(s[5:], "+-"); idx >= 0 {
			s = s[:5+idx]
		}
	}
	t, err := time.Parse("15:04:05.999999999", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("typeparser: 非法时间 %q", s)
		}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func asString(src any) (string, bool) {
	switch v := src.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func parseInteger(src any) (any, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		return v, nil
	}
	s, ok := asString(src)
	if !ok {
		return src, nil
	}
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("typeparser: 非法整数 %q", s)
	}
	return i, nil
}

func parseNumeric(src any) (any, error) {
	switch v := src.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	s, ok := asString(src)
	if !ok {
		return src, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("typeparser: 非法数值 %q", s)
	}
	return d, nil
}

func parseTimeOfDay(src any) (any, error) {
	if t, ok := src.(time.Time); ok {
		return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}, nil
	}
	s, ok := asString(src)
	if !ok {
		return src, nil
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		// MySQL 的 TIME 是时间间隔, 可以超过 24 小时或者是负数, 原样返回
		if s = strings.TrimSpace(s); isInterval(s) {
			return s, nil
		}
		return nil, err
	}
	return t, nil
}

// isInterval 判断 [-]H+:MM:SS[.ffffff]
func isInterval(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		if !isDigits(s[dot+1:]) {
			return false
		}
		s = s[:dot]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 || !isDigits(parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 2 || !isDigits(p) || p[0] > '5' {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseTimestamp(src any) (any, error) {
	if t, ok := src.(time.Time); ok {
		return t, nil
	}
	s, ok := asString(src)
	if !ok {
		return src, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("typeparser: 非法时间戳 %q", s)
}

func parseDefault(src any) (any, error) {
	if bs, ok := src.([]byte); ok {
		return string(bs), nil
	}
	return src, nil
}
