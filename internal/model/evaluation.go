package model

import (
	"errors"
	"time"

	"github.com/mautops/appraisal-gin/internal/scoring"
)

// EvaluationModel 主管评价数据模型,与自评一一对应
type EvaluationModel struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	AppraisalID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"appraisal_id"`
	EvaluatorID string `gorm:"type:varchar(64);not null;index" json:"evaluator_id"`

	Ratings                scoring.Ratings `gorm:"embedded" json:"ratings"`
	HODAssessmentScore     float64         `gorm:"column:hod_assessment_score;not null;default:0" json:"hod_assessment_score"`
	ShowCauseNotices       string          `gorm:"type:text" json:"show_cause_notices"`
	SuggestionsImprovement string          `gorm:"type:text" json:"suggestions_improvement"`

	TeachingWeightedScore        float64 `gorm:"not null;default:0" json:"teaching_weighted_score"`
	ResearchWeightedScore        float64 `gorm:"not null;default:0" json:"research_weighted_score"`
	ProfessionalDevWeightedScore float64 `gorm:"not null;default:0" json:"professional_dev_weighted_score"`
	AdminWeightedScore           float64 `gorm:"not null;default:0" json:"admin_weighted_score"`
	FinalWeightedScore           float64 `gorm:"not null;default:0" json:"final_weighted_score"`
	NormalizedScore              float64 `gorm:"not null;default:0" json:"normalized_score"`
	PerformanceCategory          string  `gorm:"type:varchar(32)" json:"performance_category,omitempty"`

	HODSignatureConfirmed bool       `gorm:"column:hod_signature_confirmed;not null;default:false" json:"hod_signature_confirmed"`
	Status                string     `gorm:"type:varchar(32);not null;index" json:"status"` // under_review/reviewed/finalized
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
	Revision              int64      `gorm:"not null;default:1" json:"revision"`
	CreatedAt             time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (EvaluationModel) TableName() string {
	return "evaluations"
}

// ApplyScores 写入加权分数和等级
func (em *EvaluationModel) ApplyScores(s scoring.EvaluationScores) {
	em.HODAssessmentScore = s.HODAssessment
	em.TeachingWeightedScore = s.Teaching
	em.ResearchWeightedScore = s.Research
	em.ProfessionalDevWeightedScore = s.ProfessionalDev
	em.AdminWeightedScore = s.Admin
	em.FinalWeightedScore = s.Final
	em.NormalizedScore = s.Normalized
	em.PerformanceCategory = string(s.Category)
}

// Validate 验证评价模型
func (em *EvaluationModel) Validate() error {
	if em.ID == "" {
		return errors.New("evaluation ID is required")
	}
	if em.AppraisalID == "" {
		return errors.New("appraisal ID is required")
	}
	if em.EvaluatorID == "" {
		return errors.New("evaluator ID is required")
	}
	if em.Status == "" {
		return errors.New("status is required")
	}
	return nil
}
