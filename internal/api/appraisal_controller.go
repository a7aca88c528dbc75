package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mautops/appraisal-gin/internal/service"
)

// AppraisalController 自评控制器
type AppraisalController struct {
	intakeService     service.IntakeService
	evaluationService service.EvaluationService
	queryService      service.QueryService
}

// NewAppraisalController 创建自评控制器
func NewAppraisalController(
	intakeService service.IntakeService,
	evaluationService service.EvaluationService,
	queryService service.QueryService,
) *AppraisalController {
	return &AppraisalController{
		intakeService:     intakeService,
		evaluationService: evaluationService,
		queryService:      queryService,
	}
}

// Create 创建自评草稿
func (c *AppraisalController) Create(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}

	var req service.CreateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	appraisal, err := c.intakeService.CreateDraft(ctx.Request.Context(), id, &req)
	if err != nil {
		fail(ctx, err)
		return
	}

	Created(ctx, appraisal)
}

// List 分页列出自评
// 支持 faculty_id、department_id、academic_year、status、include_superseded 过滤
func (c *AppraisalController) List(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}

	q := parseListQuery(ctx)
	filter := &service.ListAppraisalsFilter{
		FacultyID:         optionalQuery(ctx, "faculty_id"),
		DepartmentID:      optionalQuery(ctx, "department_id"),
		AcademicYear:      optionalQuery(ctx, "academic_year"),
		Status:            optionalQuery(ctx, "status"),
		IncludeSuperseded: ctx.Query("include_superseded") == "true",
		Page:              q.Page,
		PageSize:          q.PageSize,
		SortBy:            q.SortBy,
		Order:             q.Order,
	}

	appraisals, total, err := c.queryService.ListAppraisals(ctx.Request.Context(), id, filter)
	if err != nil {
		fail(ctx, err)
		return
	}

	Paginated(ctx, appraisals, NewPaginationInfo(q.Page, q.PageSize, total))
}

// Get 获取自评详情
func (c *AppraisalController) Get(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	appraisalID, ok := pathID(ctx)
	if !ok {
		return
	}

	appraisal, err := c.queryService.GetAppraisal(ctx.Request.Context(), id, appraisalID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, appraisal)
}

// Update 更新自评草稿
func (c *AppraisalController) Update(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	appraisalID, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.UpdateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	appraisal, err := c.intakeService.UpdateDraft(ctx.Request.Context(), id, appraisalID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, appraisal)
}

// Submit 提交自评
func (c *AppraisalController) Submit(ctx *gin.Context) {
	withRevision(ctx, c.intakeService.Submit)
}

// Discard 丢弃自评草稿
func (c *AppraisalController) Discard(ctx *gin.Context) {
	withRevision(ctx, c.intakeService.DiscardDraft)
}

// History 获取考核链状态历史
func (c *AppraisalController) History(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	appraisalID, ok := pathID(ctx)
	if !ok {
		return
	}

	history, err := c.queryService.GetHistory(ctx.Request.Context(), id, appraisalID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, history)
}

// OpenEvaluation 为已提交的自评开启评价
func (c *AppraisalController) OpenEvaluation(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	appraisalID, ok := pathID(ctx)
	if !ok {
		return
	}

	evaluation, err := c.evaluationService.Open(ctx.Request.Context(), id, appraisalID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, evaluation)
}

// GetEvaluation 获取自评对应的评价
func (c *AppraisalController) GetEvaluation(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	appraisalID, ok := pathID(ctx)
	if !ok {
		return
	}

	evaluation, err := c.queryService.GetEvaluationByAppraisal(ctx.Request.Context(), id, appraisalID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, evaluation)
}
