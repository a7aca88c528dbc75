package lifecycle

import (
	"fmt"

	"github.com/mautops/appraisal-gin/internal/apperr"
)

// State 考核链状态
type State string

const (
	StateDraft       State = "draft"
	StateSubmitted   State = "submitted"
	StateUnderReview State = "under_review"
	StateReviewed    State = "reviewed"
	StateFinalized   State = "finalized"
)

// Valid 判断是否为已知状态
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateSubmitted, StateUnderReview, StateReviewed, StateFinalized:
		return true
	}
	return false
}

// chainTransitions 考核链合法转换表
// reviewed -> under_review 是唯一的回退边
var chainTransitions = map[State][]State{
	StateDraft:       {StateSubmitted},
	StateSubmitted:   {StateUnderReview},
	StateUnderReview: {StateReviewed},
	StateReviewed:    {StateFinalized, StateUnderReview},
	StateFinalized:   {},
}

// StateMachine 状态机接口
type StateMachine interface {
	CanTransition(from, to State) bool
	Transition(from, to State) error
}

type stateMachine struct {
	transitions map[State][]State
}

// NewStateMachine 创建考核链状态机
func NewStateMachine() StateMachine {
	return &stateMachine{transitions: chainTransitions}
}

// CanTransition 判断是否允许从 from 转换到 to
func (m *stateMachine) CanTransition(from, to State) bool {
	for _, next := range m.transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition 校验状态转换,不合法时返回 StateError
func (m *stateMachine) Transition(from, to State) error {
	if !m.CanTransition(from, to) {
		return apperr.State("INVALID_TRANSITION", fmt.Sprintf("invalid state transition: %s -> %s", from, to))
	}
	return nil
}

// ChainState 计算考核链当前状态
// 存在评价记录时以评价状态为准,否则取自评状态
func ChainState(appraisalStatus State, evaluationStatus *State) State {
	if evaluationStatus != nil && *evaluationStatus != "" {
		return *evaluationStatus
	}
	return appraisalStatus
}
