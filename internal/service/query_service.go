package service

import (
	"context"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/repository"
)

// QueryService 查询服务接口
// 按角色限定范围: faculty 只能看本人,hod 只能看本部门,principal 不限
type QueryService interface {
	ListAppraisals(ctx context.Context, id auth.Identity, filter *ListAppraisalsFilter) ([]*model.SelfAppraisalModel, int64, error)
	GetAppraisal(ctx context.Context, id auth.Identity, appraisalID string) (*model.SelfAppraisalModel, error)
	ListEvaluations(ctx context.Context, id auth.Identity, filter *ListEvaluationsFilter) ([]*model.EvaluationModel, int64, error)
	GetEvaluation(ctx context.Context, id auth.Identity, evaluationID string) (*model.EvaluationModel, error)
	GetEvaluationByAppraisal(ctx context.Context, id auth.Identity, appraisalID string) (*model.EvaluationModel, error)
	GetHistory(ctx context.Context, id auth.Identity, appraisalID string) ([]*model.StateHistoryModel, error)
}

// ListAppraisalsFilter 自评列表查询过滤器
type ListAppraisalsFilter struct {
	FacultyID         *string
	DepartmentID      *string
	AcademicYear      *string
	Status            *string
	IncludeSuperseded bool
	Page              int
	PageSize          int
	SortBy            string
	Order             string
}

// ListEvaluationsFilter 评价列表查询过滤器
type ListEvaluationsFilter struct {
	DepartmentID *string
	AcademicYear *string
	Status       *string
	EvaluatorID  *string
	Page         int
	PageSize     int
	SortBy       string
	Order        string
}

// queryService 查询服务实现
type queryService struct {
	base
}

// NewQueryService 创建查询服务
func NewQueryService(d Deps) QueryService {
	return &queryService{base: newBase(d)}
}

// restrict 按角色收窄过滤条件,显式请求范围外的数据时返回 AuthorizationError
func restrict(profile *model.ProfileModel, id auth.Identity, facultyID, departmentID **string) error {
	switch id.Role {
	case auth.RoleFaculty:
		if *facultyID != nil && **facultyID != profile.ID {
			return apperr.Authorization("NOT_OWNER", "faculty can only list their own appraisals")
		}
		own := profile.ID
		*facultyID = &own
	case auth.RoleHOD:
		if id.DepartmentID == "" {
			return apperr.Authorization("DEPARTMENT_MISMATCH", "hod has no department")
		}
		if *departmentID != nil && **departmentID != id.DepartmentID {
			return apperr.Authorization("DEPARTMENT_MISMATCH", "hod can only list their own department")
		}
		dept := id.DepartmentID
		*departmentID = &dept
	case auth.RolePrincipal:
	default:
		return apperr.Authorization("UNKNOWN_ROLE", "unknown role")
	}
	return nil
}

// ListAppraisals 列出自评
func (s *queryService) ListAppraisals(ctx context.Context, id auth.Identity, filter *ListAppraisalsFilter) ([]*model.SelfAppraisalModel, int64, error) {
	if filter == nil {
		filter = &ListAppraisalsFilter{}
	}
	repos := s.reads(ctx)
	profile, id, err := caller(repos, id)
	if err != nil {
		return nil, 0, err
	}

	f := &repository.SelfAppraisalFilter{
		FacultyID:         filter.FacultyID,
		DepartmentID:      filter.DepartmentID,
		AcademicYear:      filter.AcademicYear,
		Status:            filter.Status,
		IncludeSuperseded: filter.IncludeSuperseded,
		SortBy:            filter.SortBy,
		Order:             filter.Order,
		Page:              repository.Page{Page: filter.Page, PageSize: filter.PageSize},
	}
	if err := restrict(profile, id, &f.FacultyID, &f.DepartmentID); err != nil {
		return nil, 0, err
	}
	return repos.Appraisals.FindByFilter(f)
}

// GetAppraisal 获取自评详情
func (s *queryService) GetAppraisal(ctx context.Context, id auth.Identity, appraisalID string) (*model.SelfAppraisalModel, error) {
	return s.readableAppraisal(s.reads(ctx), id, appraisalID)
}

// ListEvaluations 列出评价
func (s *queryService) ListEvaluations(ctx context.Context, id auth.Identity, filter *ListEvaluationsFilter) ([]*model.EvaluationModel, int64, error) {
	if filter == nil {
		filter = &ListEvaluationsFilter{}
	}
	repos := s.reads(ctx)
	profile, id, err := caller(repos, id)
	if err != nil {
		return nil, 0, err
	}

	f := &repository.EvaluationFilter{
		DepartmentID: filter.DepartmentID,
		AcademicYear: filter.AcademicYear,
		Status:       filter.Status,
		EvaluatorID:  filter.EvaluatorID,
		SortBy:       filter.SortBy,
		Order:        filter.Order,
		Page:         repository.Page{Page: filter.Page, PageSize: filter.PageSize},
	}
	if err := restrict(profile, id, &f.FacultyID, &f.DepartmentID); err != nil {
		return nil, 0, err
	}
	return repos.Evaluations.FindByFilter(f)
}

// GetEvaluation 获取评价详情
func (s *queryService) GetEvaluation(ctx context.Context, id auth.Identity, evaluationID string) (*model.EvaluationModel, error) {
	return s.readableEvaluation(s.reads(ctx), id, evaluationID)
}

// GetEvaluationByAppraisal 获取自评对应的评价
func (s *queryService) GetEvaluationByAppraisal(ctx context.Context, id auth.Identity, appraisalID string) (*model.EvaluationModel, error) {
	repos := s.reads(ctx)
	if _, err := s.readableAppraisal(repos, id, appraisalID); err != nil {
		return nil, err
	}
	return repos.Evaluations.FindByAppraisalID(appraisalID)
}

// GetHistory 获取考核链的状态历史,按时间顺序
func (s *queryService) GetHistory(ctx context.Context, id auth.Identity, appraisalID string) ([]*model.StateHistoryModel, error) {
	repos := s.reads(ctx)
	if _, err := s.readableAppraisal(repos, id, appraisalID); err != nil {
		return nil, err
	}
	return repos.History.FindByAppraisalID(appraisalID)
}
