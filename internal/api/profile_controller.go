package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mautops/appraisal-gin/internal/service"
)

// ProfileController 档案与部门控制器
type ProfileController struct {
	profileService service.ProfileService
}

// NewProfileController 创建档案控制器
func NewProfileController(profileService service.ProfileService) *ProfileController {
	return &ProfileController{profileService: profileService}
}

// Register 注册当前身份的档案
// 角色和部门取自认证身份,请求体只携带个人信息
func (c *ProfileController) Register(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}

	var req service.RegisterProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	profile, err := c.profileService.RegisterProfile(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}

	Created(ctx, profile)
}

// Me 获取当前身份的档案
func (c *ProfileController) Me(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}

	profile, err := c.profileService.Me(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, profile)
}

// ListDepartments 列出部门
func (c *ProfileController) ListDepartments(ctx *gin.Context) {
	departments, err := c.profileService.ListDepartments(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, departments)
}
