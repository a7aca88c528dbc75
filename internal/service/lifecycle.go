package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/lifecycle"
	"github.com/mautops/appraisal-gin/internal/logging"
	"github.com/mautops/appraisal-gin/internal/metrics"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/repository"
)

// Deps 服务共享的依赖
type Deps struct {
	DB        *gorm.DB
	Repos     *repository.Repositories
	Lifecycle *lifecycle.Controller
	Audit     AuditLogService
}

// base 核心写操作的公共逻辑
type base struct {
	Deps
}

func newBase(d Deps) base {
	if d.Repos == nil {
		d.Repos = repository.NewRepositories(d.DB)
	}
	if d.Lifecycle == nil {
		d.Lifecycle = lifecycle.NewController(nil)
	}
	if d.Audit == nil {
		d.Audit = NewAuditLogService(d.Repos.AuditLogs)
	}
	return base{Deps: d}
}

// txScope 单个事务内的仓储、审计和待发布的状态转换
type txScope struct {
	repos       *repository.Repositories
	audit       AuditLogService
	transitions []*model.StateHistoryModel
}

// inTx 在一个事务内执行写操作,提交成功后再记录状态转换指标
func (b *base) inTx(ctx context.Context, fn func(s *txScope) error) error {
	var scope *txScope
	err := b.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := b.Repos.WithTx(tx)
		scope = &txScope{repos: repos, audit: b.Audit.WithTx(repos)}
		return fn(scope)
	})
	if err != nil {
		return err
	}
	for _, h := range scope.transitions {
		metrics.RecordTransition(h.EntityType, h.FromState, h.ToState)
		logging.GetLogger().WithFields(logrus.Fields{
			"entity":       h.EntityType,
			"entity_id":    h.EntityID,
			"appraisal_id": h.AppraisalID,
			"from":         h.FromState,
			"to":           h.ToState,
			"operator":     h.Operator,
		}).Info("appraisal state changed")
	}
	return nil
}

// reads 只读仓储,绑定请求 context
func (b *base) reads(ctx context.Context) *repository.Repositories {
	return b.Repos.WithTx(b.DB.WithContext(ctx))
}

// caller 查找调用者档案并校验角色一致
// 部门以档案为准,档案未设置部门时沿用身份中的部门
func caller(repos *repository.Repositories, id auth.Identity) (*model.ProfileModel, auth.Identity, error) {
	profile, err := repos.Profiles.FindByUserID(id.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, id, apperr.Authorization("PROFILE_NOT_REGISTERED",
				fmt.Sprintf("user %q has no registered profile", id.UserID))
		}
		return nil, id, err
	}
	if profile.Role != string(id.Role) {
		return nil, id, apperr.Authorization("ROLE_MISMATCH",
			fmt.Sprintf("identity role %q does not match registered role %q", id.Role, profile.Role))
	}
	if dept := profile.Department(); dept != "" {
		id.DepartmentID = dept
	}
	return profile, id, nil
}

// checkRevision 比较调用方携带的版本号
func checkRevision(resource string, expected, actual int64) error {
	if expected != actual {
		return apperr.Concurrency(resource, expected, actual)
	}
	return nil
}

// activeAppraisal 查找自评并拒绝已作废的记录
func activeAppraisal(repos *repository.Repositories, id string) (*model.SelfAppraisalModel, error) {
	a, err := repos.Appraisals.FindByID(id)
	if err != nil {
		return nil, err
	}
	if a.SupersededAt != nil {
		return nil, apperr.State("APPRAISAL_SUPERSEDED", fmt.Sprintf("self-appraisal %q has been discarded", id))
	}
	return a, nil
}

// appraisalScope 自评的归属范围
func appraisalScope(a *model.SelfAppraisalModel) lifecycle.Scope {
	return lifecycle.Scope{FacultyID: a.FacultyID, DepartmentID: a.DepartmentID}
}

// readableAppraisal 按调用者可见范围读取自评
// 记录不存在和不在可见范围内都返回同一个 NotFoundError
func (b *base) readableAppraisal(repos *repository.Repositories, id auth.Identity, appraisalID string) (*model.SelfAppraisalModel, error) {
	profile, id, err := caller(repos, id)
	if err != nil {
		return nil, err
	}
	a, err := repos.Appraisals.FindByID(appraisalID)
	if err != nil {
		return nil, err
	}
	if err := b.Lifecycle.AuthorizeScope(id, profile.ID, appraisalScope(a)); err != nil {
		return nil, apperr.NotFound("self_appraisal", appraisalID)
	}
	return a, nil
}

// readableEvaluation 按调用者可见范围读取评价,规则同 readableAppraisal
func (b *base) readableEvaluation(repos *repository.Repositories, id auth.Identity, evaluationID string) (*model.EvaluationModel, error) {
	e, err := repos.Evaluations.FindByID(evaluationID)
	if err != nil {
		return nil, err
	}
	if _, err := b.readableAppraisal(repos, id, e.AppraisalID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("evaluation", evaluationID)
		}
		return nil, err
	}
	return e, nil
}

// recordTransition 在事务内写入状态历史
func (s *txScope) recordTransition(entity lifecycle.Entity, entityID, appraisalID string, from, to lifecycle.State, reason, operator string) error {
	h := &model.StateHistoryModel{
		ID:          uuid.New().String(),
		EntityType:  string(entity),
		EntityID:    entityID,
		AppraisalID: appraisalID,
		FromState:   string(from),
		ToState:     string(to),
		Reason:      reason,
		Operator:    operator,
		CreatedAt:   time.Now(),
	}
	if err := s.repos.History.Save(h); err != nil {
		return fmt.Errorf("failed to save state history: %w", err)
	}
	s.transitions = append(s.transitions, h)
	return nil
}
