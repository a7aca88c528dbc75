package utils

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mautops/appraisal-gin/internal/apperr"
)

var (
	idPattern           = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// SanitizeString 清理字符串，移除或转义危险字符
func SanitizeString(input string) string {
	// 1. HTML 转义，防止 XSS
	sanitized := html.EscapeString(input)

	// 2. 移除控制字符（除了换行符和制表符）
	var result strings.Builder
	for _, r := range sanitized {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ValidateName 验证姓名、部门名称等短文本
func ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return apperr.Validation("EMPTY_NAME", field+" cannot be empty", field)
	}
	if len(trimmed) > 255 {
		return apperr.Validation("NAME_TOO_LONG", field+" exceeds maximum length", field)
	}
	if containsDangerousChars(trimmed) {
		return apperr.Validation("DANGEROUS_CHARS", field+" contains dangerous characters", field)
	}
	return nil
}

// ValidateID 验证记录 ID 格式
func ValidateID(id string) error {
	if id == "" {
		return apperr.Validation("EMPTY_ID", "id cannot be empty", "id")
	}
	if len(id) > 64 {
		return apperr.Validation("ID_TOO_LONG", "id exceeds maximum length", "id")
	}
	if !idPattern.MatchString(id) {
		return apperr.Validation("INVALID_ID_FORMAT", "id contains invalid characters", "id")
	}
	return nil
}

// ValidateAcademicYear 验证学年格式,如 2024-2025
func ValidateAcademicYear(year string) error {
	m := academicYearPattern.FindStringSubmatch(strings.TrimSpace(year))
	if m == nil {
		return apperr.Validation("INVALID_ACADEMIC_YEAR",
			fmt.Sprintf("academic year %q must look like 2024-2025", year), "academic_year")
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return apperr.Validation("INVALID_ACADEMIC_YEAR",
			fmt.Sprintf("academic year %q must span two consecutive years", year), "academic_year")
	}
	return nil
}

// containsDangerousChars 检查字符串是否包含危险字符
func containsDangerousChars(s string) bool {
	// 检查常见的 XSS 和 SQL 注入模式
	dangerousPatterns := []string{
		"<script",
		"</script>",
		"javascript:",
		"onerror=",
		"onload=",
		"';",
		"drop table",
		"delete from",
		"insert into",
		"union select",
		"<iframe",
		"<img",
		"<svg",
	}

	lower := strings.ToLower(s)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// TrimAndValidate 清理并验证字符串,空串视为合法
func TrimAndValidate(field, s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(s)
	if maxLen > 0 && len(trimmed) > maxLen {
		return "", apperr.Validation("STRING_TOO_LONG", fmt.Sprintf("%s exceeds %d characters", field, maxLen), field)
	}
	return SanitizeString(trimmed), nil
}
