package utils

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/mautops/appraisal-gin/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct 按 validate 标签校验结构体
// 失败时返回 ValidationError,Fields 为出错字段路径,如 courses[0].students_passed
func ValidateStruct(code, message string, v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return ToValidationError(code, message, err)
	}
	return nil
}

// ToValidationError 将 validator 错误转换为业务校验错误
func ToValidationError(code, message string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(code, fmt.Sprintf("%s: %v", message, err))
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldPath(fe.Namespace()))
	}
	return apperr.Validation(code, message, fields...)
}

// fieldPath Metrics.Courses[0].StudentsPassed -> courses[0].students_passed
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		idx := ""
		if j := strings.IndexByte(p, '['); j >= 0 {
			p, idx = p[:j], p[j:]
		}
		parts[i] = snake(p) + idx
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
