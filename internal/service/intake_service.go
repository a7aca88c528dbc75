package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/lifecycle"
	"github.com/mautops/appraisal-gin/internal/logging"
	"github.com/mautops/appraisal-gin/internal/metrics"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/scoring"
	"github.com/mautops/appraisal-gin/internal/utils"
)

// IntakeService 教师自评服务接口
type IntakeService interface {
	CreateDraft(ctx context.Context, id auth.Identity, req *CreateDraftRequest) (*model.SelfAppraisalModel, error)
	UpdateDraft(ctx context.Context, id auth.Identity, appraisalID string, req *UpdateDraftRequest) (*model.SelfAppraisalModel, error)
	Submit(ctx context.Context, id auth.Identity, appraisalID string, revision int64) (*model.SelfAppraisalModel, error)
	DiscardDraft(ctx context.Context, id auth.Identity, appraisalID string, revision int64) (*model.SelfAppraisalModel, error)
}

// CreateDraftRequest 创建自评草稿请求
type CreateDraftRequest struct {
	AcademicYear string `json:"academic_year" binding:"required"` // 学年,如 2024-2025
	Designation  string `json:"designation"`                      // 为空时使用档案中的职位
}

// UpdateDraftRequest 更新自评草稿请求,整体替换可编辑字段
type UpdateDraftRequest struct {
	Designation        string          `json:"designation"`
	Qualification      string          `json:"qualification"`
	DateOfJoining      *time.Time      `json:"date_of_joining"`
	ExperienceYears    *float64        `json:"experience_years"`
	Metrics            scoring.Metrics `json:"metrics"`
	SignatureConfirmed bool            `json:"signature_confirmed"`
	Revision           int64           `json:"revision" binding:"required"`
}

type intakeService struct {
	base
	weights *scoring.Provider
}

// NewIntakeService 创建自评服务
func NewIntakeService(d Deps, weights *scoring.Provider) IntakeService {
	return &intakeService{base: newBase(d), weights: weights}
}

// CreateDraft 创建自评草稿
// 同一教师同一学年已有未作废记录时返回 ConflictError
func (s *intakeService) CreateDraft(ctx context.Context, id auth.Identity, req *CreateDraftRequest) (*model.SelfAppraisalModel, error) {
	if err := s.Lifecycle.AuthorizeRole(id, lifecycle.ActionCreateDraft); err != nil {
		return nil, err
	}
	if err := utils.ValidateAcademicYear(req.AcademicYear); err != nil {
		return nil, err
	}
	designation, err := utils.TrimAndValidate("designation", req.Designation, 128)
	if err != nil {
		return nil, err
	}

	var appraisal *model.SelfAppraisalModel
	err = s.inTx(ctx, func(tx *txScope) error {
		profile, id, err := caller(tx.repos, id)
		if err != nil {
			return err
		}
		if id.DepartmentID == "" {
			return apperr.Validation("DEPARTMENT_REQUIRED", "faculty profile has no department", "department_id")
		}

		existing, err := tx.repos.Appraisals.FindActive(profile.ID, req.AcademicYear)
		switch {
		case err == nil:
			return apperr.Conflict("DUPLICATE_APPRAISAL",
				fmt.Sprintf("self-appraisal %s already exists for %s", existing.ID, req.AcademicYear))
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		if designation == "" {
			designation = profile.Position
		}
		appraisal = &model.SelfAppraisalModel{
			ID:           uuid.New().String(),
			FacultyID:    profile.ID,
			DepartmentID: id.DepartmentID,
			AcademicYear: req.AcademicYear,
			Name:         profile.FullName,
			Designation:  designation,
			Metrics:      emptyMetrics(),
			Status:       string(lifecycle.StateDraft),
			Revision:     1,
		}
		if err := tx.repos.Appraisals.Create(appraisal); err != nil {
			return err
		}
		if err := tx.recordTransition(lifecycle.EntityAppraisal, appraisal.ID, appraisal.ID,
			"", lifecycle.StateDraft, "draft created", id.UserID); err != nil {
			return err
		}
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionCreateDraft), string(lifecycle.EntityAppraisal), appraisal.ID,
			map[string]interface{}{"academic_year": appraisal.AcademicYear})
	})
	if err != nil {
		return nil, err
	}
	return appraisal, nil
}

// UpdateDraft 整体替换草稿内容,并刷新预估分数
// 指标的完整性校验推迟到提交时
func (s *intakeService) UpdateDraft(ctx context.Context, id auth.Identity, appraisalID string, req *UpdateDraftRequest) (*model.SelfAppraisalModel, error) {
	designation, err := utils.TrimAndValidate("designation", req.Designation, 128)
	if err != nil {
		return nil, err
	}
	qualification, err := utils.TrimAndValidate("qualification", req.Qualification, 255)
	if err != nil {
		return nil, err
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return nil, apperr.Validation("INVALID_EXPERIENCE", "experience_years cannot be negative", "experience_years")
	}

	var appraisal *model.SelfAppraisalModel
	err = s.inTx(ctx, func(tx *txScope) error {
		a, id, err := s.loadDraft(tx, id, appraisalID, lifecycle.ActionUpdateDraft, req.Revision)
		if err != nil {
			return err
		}

		a.Designation = designation
		a.Qualification = qualification
		a.DateOfJoining = req.DateOfJoining
		a.ExperienceYears = req.ExperienceYears
		a.Metrics = req.Metrics
		if a.Metrics.Courses == nil {
			a.Metrics.Courses = emptyMetrics().Courses
		}
		if a.Metrics.Projects == nil {
			a.Metrics.Projects = emptyMetrics().Projects
		}
		a.SignatureConfirmed = req.SignatureConfirmed
		scoring.NormalizeCourses(a.Metrics.Courses)
		a.ApplyScores(scoring.ScoreAppraisal(a.Metrics, s.weights.Get()))

		if err := tx.repos.Appraisals.Update(a, req.Revision); err != nil {
			return err
		}
		appraisal = a
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionUpdateDraft), string(lifecycle.EntityAppraisal), a.ID,
			map[string]interface{}{"revision": a.Revision, "provisional_total": a.TotalScore})
	})
	if err != nil {
		return nil, err
	}
	return appraisal, nil
}

// Submit 校验指标并计算四项分数,提交后教师不可再修改
// 失败时记录保持不变
func (s *intakeService) Submit(ctx context.Context, id auth.Identity, appraisalID string, revision int64) (*model.SelfAppraisalModel, error) {
	var appraisal *model.SelfAppraisalModel
	err := s.inTx(ctx, func(tx *txScope) error {
		a, id, err := s.loadDraft(tx, id, appraisalID, lifecycle.ActionSubmitDraft, revision)
		if err != nil {
			return err
		}
		if !a.SignatureConfirmed {
			return apperr.Validation("SIGNATURE_REQUIRED", "signature must be confirmed before submission", "signature_confirmed")
		}
		if err := scoring.ValidateMetrics(a.Metrics); err != nil {
			return err
		}

		from, to := lifecycle.StateDraft, lifecycle.StateSubmitted
		if err := s.Lifecycle.Move(lifecycle.EntityAppraisal, from, to); err != nil {
			return err
		}
		if err := s.Lifecycle.MoveChain(from, to); err != nil {
			return err
		}

		scoring.NormalizeCourses(a.Metrics.Courses)
		a.ApplyScores(scoring.ScoreAppraisal(a.Metrics, s.weights.Get()))
		now := time.Now()
		a.Status = string(to)
		a.SubmittedAt = &now

		if err := tx.repos.Appraisals.Update(a, revision); err != nil {
			return err
		}
		if err := tx.recordTransition(lifecycle.EntityAppraisal, a.ID, a.ID, from, to, "submitted by faculty", id.UserID); err != nil {
			return err
		}
		appraisal = a
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionSubmitDraft), string(lifecycle.EntityAppraisal), a.ID,
			a.Subscores())
	})
	if err != nil {
		logging.GetLogger().WithError(err).WithFields(logrus.Fields{
			"appraisal_id": appraisalID,
			"user_id":      id.UserID,
		}).Warn("self-appraisal submission rejected")
		return nil, err
	}

	metrics.ObserveScore("self_total", appraisal.TotalScore)
	return appraisal, nil
}

// DiscardDraft 作废草稿,作废后同一学年可重新创建
func (s *intakeService) DiscardDraft(ctx context.Context, id auth.Identity, appraisalID string, revision int64) (*model.SelfAppraisalModel, error) {
	var appraisal *model.SelfAppraisalModel
	err := s.inTx(ctx, func(tx *txScope) error {
		a, id, err := s.loadDraft(tx, id, appraisalID, lifecycle.ActionDiscardDraft, revision)
		if err != nil {
			return err
		}
		now := time.Now()
		a.SupersededAt = &now
		if err := tx.repos.Appraisals.Update(a, revision); err != nil {
			return err
		}
		appraisal = a
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionDiscardDraft), string(lifecycle.EntityAppraisal), a.ID,
			map[string]interface{}{"academic_year": a.AcademicYear})
	})
	if err != nil {
		return nil, err
	}
	return appraisal, nil
}

// loadDraft 读取自评并依次校验归属、角色状态和版本号
func (s *intakeService) loadDraft(tx *txScope, id auth.Identity, appraisalID string, action lifecycle.Action, revision int64) (*model.SelfAppraisalModel, auth.Identity, error) {
	if err := s.Lifecycle.AuthorizeRole(id, action); err != nil {
		return nil, id, err
	}
	profile, id, err := caller(tx.repos, id)
	if err != nil {
		return nil, id, err
	}
	a, err := activeAppraisal(tx.repos, appraisalID)
	if err != nil {
		return nil, id, err
	}
	if err := s.Lifecycle.AuthorizeScope(id, profile.ID, appraisalScope(a)); err != nil {
		return nil, id, err
	}
	if err := s.Lifecycle.Authorize(id, action, lifecycle.State(a.Status)); err != nil {
		return nil, id, err
	}
	if err := checkRevision(string(lifecycle.EntityAppraisal), revision, a.Revision); err != nil {
		return nil, id, err
	}
	return a, id, nil
}

func emptyMetrics() scoring.Metrics {
	return scoring.Metrics{
		Courses:  []scoring.CourseEntry{},
		Projects: []scoring.ProjectEntry{},
	}
}
