package model

import (
	"errors"
	"time"

	"github.com/mautops/appraisal-gin/internal/scoring"
)

// SelfAppraisalModel 教师年度自评数据模型
// 同一教师同一学年最多一条未作废记录
type SelfAppraisalModel struct {
	ID           string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FacultyID    string `gorm:"type:varchar(64);not null;index" json:"faculty_id"`
	DepartmentID string `gorm:"type:varchar(64);not null;index" json:"department_id"`
	AcademicYear string `gorm:"type:varchar(16);not null;index" json:"academic_year"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Designation  string `gorm:"type:varchar(128)" json:"designation"`

	Qualification   string     `gorm:"type:varchar(255)" json:"qualification"`
	DateOfJoining   *time.Time `json:"date_of_joining,omitempty"`
	ExperienceYears *float64   `json:"experience_years,omitempty"`

	Metrics scoring.Metrics `gorm:"embedded" json:"metrics"`

	TeachingScore        float64 `gorm:"not null;default:0" json:"teaching_score"`
	ResearchScore        float64 `gorm:"not null;default:0" json:"research_score"`
	ProfessionalDevScore float64 `gorm:"not null;default:0" json:"professional_dev_score"`
	AdminScore           float64 `gorm:"not null;default:0" json:"admin_score"`
	TotalScore           float64 `gorm:"not null;default:0" json:"total_score"`

	SignatureConfirmed bool       `gorm:"not null;default:false" json:"signature_confirmed"`
	Status             string     `gorm:"type:varchar(32);not null;index" json:"status"` // draft/submitted/under_review
	SubmittedAt        *time.Time `gorm:"index" json:"submitted_at,omitempty"`
	SupersededAt       *time.Time `gorm:"index" json:"superseded_at,omitempty"`
	Revision           int64      `gorm:"not null;default:1" json:"revision"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (SelfAppraisalModel) TableName() string {
	return "self_appraisals"
}

// ApplyScores 写入四项分数及总分
func (sa *SelfAppraisalModel) ApplyScores(s scoring.Subscores) {
	sa.TeachingScore = s.Teaching
	sa.ResearchScore = s.Research
	sa.ProfessionalDevScore = s.ProfessionalDev
	sa.AdminScore = s.Admin
	sa.TotalScore = s.Total
}

// Subscores 读取已保存的分数
func (sa *SelfAppraisalModel) Subscores() scoring.Subscores {
	return scoring.Subscores{
		Teaching:        sa.TeachingScore,
		Research:        sa.ResearchScore,
		ProfessionalDev: sa.ProfessionalDevScore,
		Admin:           sa.AdminScore,
		Total:           sa.TotalScore,
	}
}

// Validate 验证自评模型
func (sa *SelfAppraisalModel) Validate() error {
	if sa.ID == "" {
		return errors.New("self-appraisal ID is required")
	}
	if sa.FacultyID == "" {
		return errors.New("faculty ID is required")
	}
	if sa.DepartmentID == "" {
		return errors.New("department ID is required")
	}
	if sa.AcademicYear == "" {
		return errors.New("academic year is required")
	}
	if sa.Status == "" {
		return errors.New("status is required")
	}
	return nil
}
