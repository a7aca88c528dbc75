package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 错误分类
type Kind string

const (
	KindValidation    Kind = "validation"
	KindState         Kind = "state"
	KindAuthorization Kind = "authorization"
	KindConcurrency   Kind = "concurrency"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
)

// 哨兵错误,配合 errors.Is 判断错误分类
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrState         = &Error{Kind: KindState}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrConcurrency   = &Error{Kind: KindConcurrency}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
)

// Error 业务错误
// Code 标识违反的前置条件,Fields 记录具体出错的字段
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Fields, ", "))
	}
	return msg
}

// Is 同一分类即视为匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation 输入缺失、越界或前置条件不满足
func Validation(code, message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

// State 操作不在合法的生命周期状态
func State(code, message string) *Error {
	return &Error{Kind: KindState, Code: code, Message: message}
}

// Authorization 调用者角色或部门不匹配
func Authorization(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

// Concurrency 写入时版本号已过期
func Concurrency(resource string, expected, actual int64) *Error {
	return &Error{
		Kind:    KindConcurrency,
		Code:    "STALE_REVISION",
		Message: fmt.Sprintf("%s revision %d is stale, current revision is %d", resource, expected, actual),
	}
}

// NotFound 引用的记录不存在
func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    strings.ToUpper(resource) + "_NOT_FOUND",
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

// Conflict 重复记录
func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// KindOf 返回错误分类,非业务错误返回空
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
