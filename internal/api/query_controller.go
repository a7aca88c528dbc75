package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// RevisionRequest 仅携带版本号的写请求
type RevisionRequest struct {
	Revision int64 `json:"revision" binding:"required"`
}

// listQuery 列表查询的分页与排序参数
type listQuery struct {
	Page     int
	PageSize int
	SortBy   string
	Order    string
}

// currentIdentity 读取认证中间件写入的身份,缺失时返回 401
func currentIdentity(ctx *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFromGin(ctx)
	if !ok {
		fail(ctx, &APIError{Code: http.StatusUnauthorized, Message: "unauthorized", Detail: "missing identity"})
		return auth.Identity{}, false
	}
	return id, true
}

// pathID 读取并校验路径中的记录 ID
func pathID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if err := utils.ValidateID(id); err != nil {
		fail(ctx, err)
		return "", false
	}
	return id, true
}

// optionalQuery 查询参数为空时返回 nil
func optionalQuery(ctx *gin.Context, key string) *string {
	v := utils.SanitizeString(ctx.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// parseListQuery 解析分页与排序参数,非法值回退为默认值
func parseListQuery(ctx *gin.Context) listQuery {
	q := listQuery{
		Page:     1,
		PageSize: defaultPageSize,
		SortBy:   ctx.Query("sort_by"),
		Order:    ctx.Query("order"),
	}
	if page, err := strconv.Atoi(ctx.Query("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(ctx.Query("page_size")); err == nil && size > 0 {
		q.PageSize = size
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

// withRevision 处理只携带版本号的写操作,如提交和丢弃
func withRevision[T any](ctx *gin.Context, op func(context.Context, auth.Identity, string, int64) (T, error)) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	recordID, ok := pathID(ctx)
	if !ok {
		return
	}

	var req RevisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	result, err := op(ctx.Request.Context(), id, recordID, req.Revision)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, result)
}
