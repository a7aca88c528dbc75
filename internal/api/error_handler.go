package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/logging"
)

// APIError API 错误,用于传输层自身的错误(如请求体解析失败)
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// statusFor 业务错误分类对应的 HTTP 状态码
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindState:
		return http.StatusConflict
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindConcurrency:
		return http.StatusPreconditionFailed
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// renderError 将错误写为 ErrorResponse
func renderError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := statusFor(appErr.Kind)
		c.JSON(status, ErrorResponse{
			Code:      status,
			Message:   appErr.Message,
			Detail:    err.Error(),
			ErrorKind: string(appErr.Kind),
			Reason:    appErr.Code,
			Fields:    appErr.Fields,
		})
		return
	}

	logging.GetLogger().WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	Error(c, http.StatusInternalServerError, "internal server error", "")
}

// ErrorHandlerMiddleware 错误处理中间件
// 控制器通过 ctx.Error 上报错误,由这里统一转换为响应
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

// fail 上报错误并中止后续处理
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// badRequest 请求体或查询参数无法解析
func badRequest(c *gin.Context, err error) {
	fail(c, WrapError(err, http.StatusBadRequest, "invalid request"))
}
