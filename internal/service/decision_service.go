package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/lifecycle"
	"github.com/mautops/appraisal-gin/internal/logging"
	"github.com/mautops/appraisal-gin/internal/metrics"
	"github.com/mautops/appraisal-gin/internal/model"
)

// DecisionService 院长决定服务接口
type DecisionService interface {
	Decide(ctx context.Context, id auth.Identity, evaluationID string, req *DecideRequest) (*model.DecisionModel, error)
	GetDecision(ctx context.Context, id auth.Identity, evaluationID string) (*model.DecisionModel, error)
}

// DecideRequest 决定请求
// Revision 为调用方最后读取到的评价版本号
type DecideRequest struct {
	Decision     string `json:"final_decision" binding:"required"` // approved/sent_back/escalated
	Observations string `json:"observations"`
	Revision     int64  `json:"revision" binding:"required"`
}

type decisionService struct {
	base
}

// NewDecisionService 创建决定服务
func NewDecisionService(d Deps) DecisionService {
	return &decisionService{base: newBase(d)}
}

// Decide 对已完成的评价作出决定
// approved/escalated 使评价定稿; sent_back 将评价退回主管并将自评恢复为 submitted
// 对已退回且决定为 sent_back 的评价再次 sent_back 不做任何写入
func (s *decisionService) Decide(ctx context.Context, id auth.Identity, evaluationID string, req *DecideRequest) (*model.DecisionModel, error) {
	if !model.ValidDecision(req.Decision) {
		return nil, apperr.Validation("INVALID_DECISION",
			fmt.Sprintf("final_decision must be approved, sent_back or escalated, got %q", req.Decision), "final_decision")
	}
	if err := s.Lifecycle.AuthorizeRole(id, lifecycle.ActionDecide); err != nil {
		return nil, err
	}

	var decision *model.DecisionModel
	noop := false
	err := s.inTx(ctx, func(tx *txScope) error {
		profile, id, err := caller(tx.repos, id)
		if err != nil {
			return err
		}
		e, err := tx.repos.Evaluations.FindByID(evaluationID)
		if err != nil {
			return err
		}
		a, err := tx.repos.Appraisals.FindByID(e.AppraisalID)
		if err != nil {
			return err
		}
		if err := s.Lifecycle.AuthorizeScope(id, profile.ID, appraisalScope(a)); err != nil {
			return err
		}

		existing, err := tx.repos.Decisions.FindByEvaluationID(e.ID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if req.Decision == model.DecisionSentBack &&
			e.Status == string(lifecycle.StateUnderReview) &&
			existing != nil && existing.FinalDecision == model.DecisionSentBack {
			decision = existing
			noop = true
			return nil
		}

		if err := s.Lifecycle.Authorize(id, lifecycle.ActionDecide, lifecycle.State(e.Status)); err != nil {
			return err
		}
		if err := checkRevision(string(lifecycle.EntityEvaluation), req.Revision, e.Revision); err != nil {
			return err
		}

		decision, err = s.upsert(tx, existing, e.ID, profile.ID, req)
		if err != nil {
			return err
		}

		if req.Decision == model.DecisionSentBack {
			if err := s.sendBack(tx, id, e, a, req.Observations); err != nil {
				return err
			}
		} else {
			from, to := lifecycle.StateReviewed, lifecycle.StateFinalized
			if err := s.Lifecycle.Move(lifecycle.EntityEvaluation, from, to); err != nil {
				return err
			}
			if err := s.Lifecycle.MoveChain(from, to); err != nil {
				return err
			}
			e.Status = string(to)
			if err := tx.repos.Evaluations.Update(e, e.Revision); err != nil {
				return err
			}
			if err := tx.recordTransition(lifecycle.EntityEvaluation, e.ID, a.ID, from, to, req.Decision, id.UserID); err != nil {
				return err
			}
		}

		return tx.audit.RecordAction(ctx, id, string(lifecycle.ActionDecide), "decision", decision.ID,
			map[string]interface{}{"evaluation_id": e.ID, "final_decision": req.Decision})
	})
	if err != nil {
		return nil, err
	}

	if noop {
		logging.GetLogger().WithField("evaluation_id", evaluationID).Debug("evaluation already sent back, nothing to do")
		return decision, nil
	}
	metrics.RecordDecision(req.Decision)
	return decision, nil
}

// upsert 创建或更新评价对应的唯一决定
func (s *decisionService) upsert(tx *txScope, existing *model.DecisionModel, evaluationID, deciderID string, req *DecideRequest) (*model.DecisionModel, error) {
	if existing == nil {
		d := &model.DecisionModel{
			ID:            uuid.New().String(),
			EvaluationID:  evaluationID,
			DeciderID:     deciderID,
			FinalDecision: req.Decision,
			Observations:  req.Observations,
			Revision:      1,
		}
		if err := tx.repos.Decisions.Create(d); err != nil {
			return nil, err
		}
		return d, nil
	}

	existing.DeciderID = deciderID
	existing.FinalDecision = req.Decision
	existing.Observations = req.Observations
	if err := tx.repos.Decisions.Update(existing, existing.Revision); err != nil {
		return nil, err
	}
	return existing, nil
}

// sendBack 回退: 评价恢复 under_review 并清除主管签名,自评恢复 submitted
// 分数和评分保持不变
func (s *decisionService) sendBack(tx *txScope, id auth.Identity, e *model.EvaluationModel, a *model.SelfAppraisalModel, reason string) error {
	from, to := lifecycle.StateReviewed, lifecycle.StateUnderReview
	if err := s.Lifecycle.Move(lifecycle.EntityEvaluation, from, to); err != nil {
		return err
	}
	if err := s.Lifecycle.MoveChain(from, to); err != nil {
		return err
	}
	appraisalFrom := lifecycle.State(a.Status)
	if appraisalFrom != lifecycle.StateSubmitted {
		if err := s.Lifecycle.Move(lifecycle.EntityAppraisal, appraisalFrom, lifecycle.StateSubmitted); err != nil {
			return err
		}
	}

	e.Status = string(to)
	e.HODSignatureConfirmed = false
	if err := tx.repos.Evaluations.Update(e, e.Revision); err != nil {
		return err
	}
	if reason == "" {
		reason = model.DecisionSentBack
	}
	if err := tx.recordTransition(lifecycle.EntityEvaluation, e.ID, a.ID, from, to, reason, id.UserID); err != nil {
		return err
	}

	if appraisalFrom != lifecycle.StateSubmitted {
		a.Status = string(lifecycle.StateSubmitted)
		if err := tx.repos.Appraisals.Update(a, a.Revision); err != nil {
			return err
		}
		if err := tx.recordTransition(lifecycle.EntityAppraisal, a.ID, a.ID, appraisalFrom, lifecycle.StateSubmitted, reason, id.UserID); err != nil {
			return err
		}
	}

	logging.GetLogger().WithFields(logrus.Fields{
		"evaluation_id": e.ID,
		"appraisal_id":  a.ID,
		"operator":      id.UserID,
	}).Info("evaluation sent back to hod")
	return nil
}

// GetDecision 读取评价对应的决定
func (s *decisionService) GetDecision(ctx context.Context, id auth.Identity, evaluationID string) (*model.DecisionModel, error) {
	repos := s.reads(ctx)
	e, err := s.readableEvaluation(repos, id, evaluationID)
	if err != nil {
		return nil, err
	}
	return repos.Decisions.FindByEvaluationID(e.ID)
}
