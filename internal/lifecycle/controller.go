package lifecycle

import (
	"fmt"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
)

// Action 核心写操作
type Action string

const (
	ActionCreateDraft      Action = "create_draft"
	ActionUpdateDraft      Action = "update_draft"
	ActionSubmitDraft      Action = "submit_draft"
	ActionDiscardDraft     Action = "discard_draft"
	ActionOpenEvaluation   Action = "open_evaluation"
	ActionRateEvaluation   Action = "rate_evaluation"
	ActionSubmitEvaluation Action = "submit_evaluation"
	ActionDecide           Action = "decide"
)

// Entity 受状态机约束的实体类型
type Entity string

const (
	EntityAppraisal  Entity = "self_appraisal"
	EntityEvaluation Entity = "evaluation"
)

// rule 写操作对应的角色和允许状态
type rule struct {
	role   auth.Role
	states []State
}

// actionRules 角色写锁: 同一状态下只有一个角色可写
var actionRules = map[Action]rule{
	ActionCreateDraft:      {role: auth.RoleFaculty},
	ActionUpdateDraft:      {role: auth.RoleFaculty, states: []State{StateDraft}},
	ActionSubmitDraft:      {role: auth.RoleFaculty, states: []State{StateDraft}},
	ActionDiscardDraft:     {role: auth.RoleFaculty, states: []State{StateDraft}},
	ActionOpenEvaluation:   {role: auth.RoleHOD, states: []State{StateSubmitted}},
	ActionRateEvaluation:   {role: auth.RoleHOD, states: []State{StateUnderReview}},
	ActionSubmitEvaluation: {role: auth.RoleHOD, states: []State{StateUnderReview}},
	ActionDecide:           {role: auth.RolePrincipal, states: []State{StateReviewed}},
}

// entityTransitions 实体级状态转换
// 自评 under_review -> submitted 只在回退级联时发生
var entityTransitions = map[Entity]map[State][]State{
	EntityAppraisal: {
		StateDraft:       {StateSubmitted},
		StateSubmitted:   {StateUnderReview},
		StateUnderReview: {StateSubmitted},
	},
	EntityEvaluation: {
		"":               {StateUnderReview},
		StateUnderReview: {StateReviewed},
		StateReviewed:    {StateFinalized, StateUnderReview},
	},
}

// Scope 记录归属,用于部门和本人校验
type Scope struct {
	FacultyID    string
	DepartmentID string
}

// Controller 生命周期控制器
type Controller struct {
	sm StateMachine
}

// NewController 创建生命周期控制器
func NewController(sm StateMachine) *Controller {
	if sm == nil {
		sm = NewStateMachine()
	}
	return &Controller{sm: sm}
}

// Authorize 校验调用者角色和记录状态
// 角色不符返回 AuthorizationError,状态不符返回 StateError
func (c *Controller) Authorize(id auth.Identity, action Action, state State) error {
	if err := c.AuthorizeRole(id, action); err != nil {
		return err
	}
	r := actionRules[action]
	if len(r.states) == 0 {
		return nil
	}
	for _, s := range r.states {
		if s == state {
			return nil
		}
	}
	return apperr.State("ILLEGAL_STATE",
		fmt.Sprintf("cannot %s while record is %s", action, state))
}

// AuthorizeRole 只校验角色
func (c *Controller) AuthorizeRole(id auth.Identity, action Action) error {
	r, ok := actionRules[action]
	if !ok {
		return apperr.Authorization("UNKNOWN_ACTION", fmt.Sprintf("unknown action %q", action))
	}
	if id.Role != r.role {
		return apperr.Authorization("ROLE_NOT_ALLOWED",
			fmt.Sprintf("role %q cannot %s, requires %q", id.Role, action, r.role))
	}
	return nil
}

// AuthorizeScope 校验记录归属
// faculty 只能操作本人记录,hod 只能操作本部门记录,principal 不限部门
func (c *Controller) AuthorizeScope(id auth.Identity, callerProfileID string, scope Scope) error {
	switch id.Role {
	case auth.RoleFaculty:
		if scope.FacultyID != callerProfileID {
			return apperr.Authorization("NOT_OWNER", "faculty can only access their own appraisal")
		}
	case auth.RoleHOD:
		if id.DepartmentID == "" || scope.DepartmentID != id.DepartmentID {
			return apperr.Authorization("DEPARTMENT_MISMATCH", "hod can only access appraisals of their department")
		}
	case auth.RolePrincipal:
	default:
		return apperr.Authorization("UNKNOWN_ROLE", fmt.Sprintf("unknown role %q", id.Role))
	}
	return nil
}

// Move 校验实体级状态转换,同时要求考核链层面合法
func (c *Controller) Move(entity Entity, from, to State) error {
	table, ok := entityTransitions[entity]
	if !ok {
		return apperr.State("UNKNOWN_ENTITY", fmt.Sprintf("unknown entity %q", entity))
	}
	for _, next := range table[from] {
		if next == to {
			return nil
		}
	}
	return apperr.State("INVALID_TRANSITION",
		fmt.Sprintf("invalid %s transition: %q -> %q", entity, from, to))
}

// MoveChain 校验考核链层面的转换,相同状态视为无变化
func (c *Controller) MoveChain(from, to State) error {
	if from == to {
		return nil
	}
	return c.sm.Transition(from, to)
}
