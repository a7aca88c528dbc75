package model

import (
	"errors"
	"time"
)

// StateHistoryModel 状态变更历史数据模型
// 自评和评价的每次状态变化各记录一条,AppraisalID 用于按考核链查询
type StateHistoryModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EntityType  string    `gorm:"type:varchar(32);not null" json:"entity_type"` // self_appraisal/evaluation
	EntityID    string    `gorm:"type:varchar(64);not null;index" json:"entity_id"`
	AppraisalID string    `gorm:"type:varchar(64);not null;index" json:"appraisal_id"`
	FromState   string    `gorm:"type:varchar(32)" json:"from_state"`
	ToState     string    `gorm:"type:varchar(32);not null" json:"to_state"`
	Reason      string    `gorm:"type:text" json:"reason,omitempty"`
	Operator    string    `gorm:"type:varchar(64);not null" json:"operator"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (StateHistoryModel) TableName() string {
	return "state_history"
}

// Validate 验证状态历史模型
func (shm *StateHistoryModel) Validate() error {
	if shm.ID == "" {
		return errors.New("history ID is required")
	}
	if shm.EntityID == "" {
		return errors.New("entity ID is required")
	}
	if shm.AppraisalID == "" {
		return errors.New("appraisal ID is required")
	}
	if shm.ToState == "" {
		return errors.New("to state is required")
	}
	if shm.Operator == "" {
		return errors.New("operator is required")
	}
	return nil
}
