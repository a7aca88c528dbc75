package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/lifecycle"
	"github.com/mautops/appraisal-gin/internal/metrics"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/scoring"
)

// EvaluationService 主管评价服务接口
type EvaluationService interface {
	Open(ctx context.Context, id auth.Identity, appraisalID string) (*model.EvaluationModel, error)
	Rate(ctx context.Context, id auth.Identity, evaluationID string, req *RateRequest) (*model.EvaluationModel, error)
	Submit(ctx context.Context, id auth.Identity, evaluationID string, revision int64) (*model.EvaluationModel, error)
}

// RateRequest 评分请求,未提供的评分和备注保持不变
type RateRequest struct {
	Ratings                scoring.Ratings `json:"ratings"`
	ShowCauseNotices       *string         `json:"show_cause_notices"`
	SuggestionsImprovement *string         `json:"suggestions_improvement"`
	HODSignatureConfirmed  *bool           `json:"hod_signature_confirmed"`
	Revision               int64           `json:"revision" binding:"required"`
}

type evaluationService struct {
	base
	weights *scoring.Provider
}

// NewEvaluationService 创建评价服务
func NewEvaluationService(d Deps, weights *scoring.Provider) EvaluationService {
	return &evaluationService{base: newBase(d), weights: weights}
}

// Open 开始评价,自评状态必须为 submitted
// 回退后再次打开时复用原评价记录
func (s *evaluationService) Open(ctx context.Context, id auth.Identity, appraisalID string) (*model.EvaluationModel, error) {
	if err := s.Lifecycle.AuthorizeRole(id, lifecycle.ActionOpenEvaluation); err != nil {
		return nil, err
	}

	var evaluation *model.EvaluationModel
	err := s.inTx(ctx, func(tx *txScope) error {
		profile, id, err := caller(tx.repos, id)
		if err != nil {
			return err
		}
		a, err := activeAppraisal(tx.repos, appraisalID)
		if err != nil {
			return err
		}
		if err := s.Lifecycle.AuthorizeScope(id, profile.ID, appraisalScope(a)); err != nil {
			return err
		}
		if err := s.Lifecycle.Authorize(id, lifecycle.ActionOpenEvaluation, lifecycle.State(a.Status)); err != nil {
			return err
		}

		existing, err := tx.repos.Evaluations.FindByAppraisalID(a.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		// 回退后的评价仍为 under_review
		if existing != nil && existing.Status != string(lifecycle.StateUnderReview) {
			return apperr.State("EVALUATION_ALREADY_OPEN",
				fmt.Sprintf("evaluation %s is %s", existing.ID, existing.Status))
		}

		appraisalFrom, appraisalTo := lifecycle.StateSubmitted, lifecycle.StateUnderReview
		if err := s.Lifecycle.Move(lifecycle.EntityAppraisal, appraisalFrom, appraisalTo); err != nil {
			return err
		}
		var evaluationStatus *lifecycle.State
		if existing != nil {
			st := lifecycle.State(existing.Status)
			evaluationStatus = &st
		}
		if err := s.Lifecycle.MoveChain(lifecycle.ChainState(appraisalFrom, evaluationStatus), appraisalTo); err != nil {
			return err
		}

		if existing != nil {
			evaluation = existing
		} else {
			if err := s.Lifecycle.Move(lifecycle.EntityEvaluation, "", lifecycle.StateUnderReview); err != nil {
				return err
			}
			evaluation = &model.EvaluationModel{
				ID:          uuid.New().String(),
				AppraisalID: a.ID,
				EvaluatorID: profile.ID,
				Status:      string(lifecycle.StateUnderReview),
				Revision:    1,
			}
			if err := tx.repos.Evaluations.Create(evaluation); err != nil {
				return err
			}
			if err := tx.recordTransition(lifecycle.EntityEvaluation, evaluation.ID, a.ID,
				"", lifecycle.StateUnderReview, "evaluation opened", id.UserID); err != nil {
				return err
			}
		}

		a.Status = string(appraisalTo)
		if err := tx.repos.Appraisals.Update(a, a.Revision); err != nil {
			return err
		}
		if err := tx.recordTransition(lifecycle.EntityAppraisal, a.ID, a.ID,
			appraisalFrom, appraisalTo, "evaluation opened", id.UserID); err != nil {
			return err
		}
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionOpenEvaluation), string(lifecycle.EntityEvaluation), evaluation.ID,
			map[string]interface{}{"appraisal_id": a.ID, "reused": existing != nil})
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

// Rate 写入评分、备注和签名确认
func (s *evaluationService) Rate(ctx context.Context, id auth.Identity, evaluationID string, req *RateRequest) (*model.EvaluationModel, error) {
	var evaluation *model.EvaluationModel
	err := s.inTx(ctx, func(tx *txScope) error {
		e, _, id, err := s.loadOpen(tx, id, evaluationID, lifecycle.ActionRateEvaluation, req.Revision)
		if err != nil {
			return err
		}
		if err := req.Ratings.Validate(); err != nil {
			return err
		}

		e.Ratings = e.Ratings.Merge(req.Ratings)
		if req.ShowCauseNotices != nil {
			e.ShowCauseNotices = *req.ShowCauseNotices
		}
		if req.SuggestionsImprovement != nil {
			e.SuggestionsImprovement = *req.SuggestionsImprovement
		}
		if req.HODSignatureConfirmed != nil {
			e.HODSignatureConfirmed = *req.HODSignatureConfirmed
		}

		if err := tx.repos.Evaluations.Update(e, req.Revision); err != nil {
			return err
		}
		evaluation = e
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionRateEvaluation), string(lifecycle.EntityEvaluation), e.ID,
			map[string]interface{}{"revision": e.Revision, "missing": e.Ratings.Missing()})
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

// Submit 计算加权分数并完成评价
func (s *evaluationService) Submit(ctx context.Context, id auth.Identity, evaluationID string, revision int64) (*model.EvaluationModel, error) {
	var evaluation *model.EvaluationModel
	err := s.inTx(ctx, func(tx *txScope) error {
		e, a, id, err := s.loadOpen(tx, id, evaluationID, lifecycle.ActionSubmitEvaluation, revision)
		if err != nil {
			return err
		}
		if !e.HODSignatureConfirmed {
			return apperr.Validation("HOD_SIGNATURE_REQUIRED", "hod signature must be confirmed before submission", "hod_signature_confirmed")
		}

		scores, err := scoring.ScoreEvaluation(a.Subscores(), e.Ratings, s.weights.Get().Blend)
		if err != nil {
			return err
		}

		evaluationStatus := lifecycle.State(e.Status)
		from, to := lifecycle.StateUnderReview, lifecycle.StateReviewed
		if err := s.Lifecycle.Move(lifecycle.EntityEvaluation, from, to); err != nil {
			return err
		}
		if err := s.Lifecycle.MoveChain(lifecycle.ChainState(lifecycle.State(a.Status), &evaluationStatus), to); err != nil {
			return err
		}

		// 退回后未重新打开就提交时,自评先回到 under_review
		if err := s.resumeReview(tx, id, a); err != nil {
			return err
		}

		now := time.Now()
		e.ApplyScores(scores)
		e.Status = string(to)
		e.SubmittedAt = &now
		if err := tx.repos.Evaluations.Update(e, revision); err != nil {
			return err
		}
		if err := tx.recordTransition(lifecycle.EntityEvaluation, e.ID, a.ID, from, to, "evaluation submitted", id.UserID); err != nil {
			return err
		}
		evaluation = e
		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionSubmitEvaluation), string(lifecycle.EntityEvaluation), e.ID, scores)
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveScore("final", evaluation.FinalWeightedScore)
	return evaluation, nil
}

// resumeReview 将退回后仍为 submitted 的自评恢复为 under_review
func (s *evaluationService) resumeReview(tx *txScope, id auth.Identity, a *model.SelfAppraisalModel) error {
	if lifecycle.State(a.Status) != lifecycle.StateSubmitted {
		return nil
	}
	from, to := lifecycle.StateSubmitted, lifecycle.StateUnderReview
	if err := s.Lifecycle.Move(lifecycle.EntityAppraisal, from, to); err != nil {
		return err
	}
	a.Status = string(to)
	if err := tx.repos.Appraisals.Update(a, a.Revision); err != nil {
		return err
	}
	return tx.recordTransition(lifecycle.EntityAppraisal, a.ID, a.ID, from, to, "evaluation resubmitted", id.UserID)
}

// loadOpen 读取评价及其自评,校验归属、状态和版本号
// 评价必须为 under_review,关联自评必须为 submitted 或 under_review
func (s *evaluationService) loadOpen(tx *txScope, id auth.Identity, evaluationID string, action lifecycle.Action, revision int64) (*model.EvaluationModel, *model.SelfAppraisalModel, auth.Identity, error) {
	if err := s.Lifecycle.AuthorizeRole(id, action); err != nil {
		return nil, nil, id, err
	}
	profile, id, err := caller(tx.repos, id)
	if err != nil {
		return nil, nil, id, err
	}
	e, err := tx.repos.Evaluations.FindByID(evaluationID)
	if err != nil {
		return nil, nil, id, err
	}
	a, err := tx.repos.Appraisals.FindByID(e.AppraisalID)
	if err != nil {
		return nil, nil, id, err
	}
	if err := s.Lifecycle.AuthorizeScope(id, profile.ID, appraisalScope(a)); err != nil {
		return nil, nil, id, err
	}
	if err := s.Lifecycle.Authorize(id, action, lifecycle.State(e.Status)); err != nil {
		return nil, nil, id, err
	}
	switch lifecycle.State(a.Status) {
	case lifecycle.StateSubmitted, lifecycle.StateUnderReview:
	default:
		return nil, nil, id, apperr.State("APPRAISAL_NOT_IN_REVIEW",
			fmt.Sprintf("linked self-appraisal is %s", a.Status))
	}
	if err := checkRevision(string(lifecycle.EntityEvaluation), revision, e.Revision); err != nil {
		return nil, nil, id, err
	}
	return e, a, id, nil
}
