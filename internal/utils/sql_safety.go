package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	sortFieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	// 排序字段中不允许出现的 SQL 关键字,按完整单词匹配
	sortKeywordPattern = regexp.MustCompile(`\b(SELECT|INSERT|UPDATE|DELETE|DROP|ALTER|UNION|FROM|WHERE|OR|AND)\b`)
)

// ValidateSortField 校验排序字段只包含小写字母、数字和下划线
func ValidateSortField(field string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	if !sortFieldPattern.MatchString(field) {
		return errors.New("invalid sort field format")
	}
	if sortKeywordPattern.MatchString(strings.ToUpper(field)) {
		return errors.New("sort field contains SQL keyword")
	}
	return nil
}

// SanitizeSortOrder 规范排序方向,默认降序
func SanitizeSortOrder(order string) string {
	if upper := strings.ToUpper(strings.TrimSpace(order)); upper == "ASC" {
		return upper
	}
	return "DESC"
}
