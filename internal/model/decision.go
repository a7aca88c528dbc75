package model

import (
	"errors"
	"time"
)

// 最终决定
const (
	DecisionApproved  = "approved"
	DecisionSentBack  = "sent_back"
	DecisionEscalated = "escalated"
)

// DecisionModel 院长决定数据模型,与评价一一对应
type DecisionModel struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EvaluationID  string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"evaluation_id"`
	DeciderID     string    `gorm:"type:varchar(64);not null;index" json:"decider_id"`
	FinalDecision string    `gorm:"type:varchar(32);not null" json:"final_decision"` // approved/sent_back/escalated
	Observations  string    `gorm:"type:text" json:"observations"`
	Revision      int64     `gorm:"not null;default:1" json:"revision"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (DecisionModel) TableName() string {
	return "decisions"
}

// ValidDecision 判断是否为合法决定
func ValidDecision(d string) bool {
	switch d {
	case DecisionApproved, DecisionSentBack, DecisionEscalated:
		return true
	}
	return false
}

// Validate 验证决定模型
func (dm *DecisionModel) Validate() error {
	if dm.ID == "" {
		return errors.New("decision ID is required")
	}
	if dm.EvaluationID == "" {
		return errors.New("evaluation ID is required")
	}
	if !ValidDecision(dm.FinalDecision) {
		return errors.New("final decision must be approved, sent_back or escalated")
	}
	return nil
}
