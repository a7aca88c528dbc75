package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mautops/appraisal-gin/internal/service"
)

// EvaluationController 评价与决定控制器
type EvaluationController struct {
	evaluationService service.EvaluationService
	decisionService   service.DecisionService
	queryService      service.QueryService
}

// NewEvaluationController 创建评价控制器
func NewEvaluationController(
	evaluationService service.EvaluationService,
	decisionService service.DecisionService,
	queryService service.QueryService,
) *EvaluationController {
	return &EvaluationController{
		evaluationService: evaluationService,
		decisionService:   decisionService,
		queryService:      queryService,
	}
}

// List 分页列出评价
func (c *EvaluationController) List(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}

	q := parseListQuery(ctx)
	filter := &service.ListEvaluationsFilter{
		DepartmentID: optionalQuery(ctx, "department_id"),
		AcademicYear: optionalQuery(ctx, "academic_year"),
		Status:       optionalQuery(ctx, "status"),
		EvaluatorID:  optionalQuery(ctx, "evaluator_id"),
		Page:         q.Page,
		PageSize:     q.PageSize,
		SortBy:       q.SortBy,
		Order:        q.Order,
	}

	evaluations, total, err := c.queryService.ListEvaluations(ctx.Request.Context(), id, filter)
	if err != nil {
		fail(ctx, err)
		return
	}

	Paginated(ctx, evaluations, NewPaginationInfo(q.Page, q.PageSize, total))
}

// Get 获取评价详情
func (c *EvaluationController) Get(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	evaluationID, ok := pathID(ctx)
	if !ok {
		return
	}

	evaluation, err := c.queryService.GetEvaluation(ctx.Request.Context(), id, evaluationID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, evaluation)
}

// Rate 录入评分和备注
func (c *EvaluationController) Rate(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	evaluationID, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.RateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	evaluation, err := c.evaluationService.Rate(ctx.Request.Context(), id, evaluationID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, evaluation)
}

// Submit 提交评价
func (c *EvaluationController) Submit(ctx *gin.Context) {
	withRevision(ctx, c.evaluationService.Submit)
}

// Decide 记录最终决定
func (c *EvaluationController) Decide(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	evaluationID, ok := pathID(ctx)
	if !ok {
		return
	}

	var req service.DecideRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	decision, err := c.decisionService.Decide(ctx.Request.Context(), id, evaluationID, &req)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, decision)
}

// GetDecision 获取评价的最终决定
func (c *EvaluationController) GetDecision(ctx *gin.Context) {
	id, ok := currentIdentity(ctx)
	if !ok {
		return
	}
	evaluationID, ok := pathID(ctx)
	if !ok {
		return
	}

	decision, err := c.decisionService.GetDecision(ctx.Request.Context(), id, evaluationID)
	if err != nil {
		fail(ctx, err)
		return
	}

	Success(ctx, decision)
}
