package repository

import "gorm.io/gorm"

// Repositories 全部仓储的集合
type Repositories struct {
	Departments DepartmentRepository
	Profiles    ProfileRepository
	Appraisals  SelfAppraisalRepository
	Evaluations EvaluationRepository
	Decisions   DecisionRepository
	History     StateHistoryRepository
	AuditLogs   AuditLogRepository
}

// NewRepositories 创建仓储集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Departments: NewDepartmentRepository(db),
		Profiles:    NewProfileRepository(db),
		Appraisals:  NewSelfAppraisalRepository(db),
		Evaluations: NewEvaluationRepository(db),
		Decisions:   NewDecisionRepository(db),
		History:     NewStateHistoryRepository(db),
		AuditLogs:   NewAuditLogRepository(db),
	}
}

// WithTx 将全部仓储绑定到同一事务
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Departments: r.Departments.WithTx(tx),
		Profiles:    r.Profiles.WithTx(tx),
		Appraisals:  r.Appraisals.WithTx(tx),
		Evaluations: r.Evaluations.WithTx(tx),
		Decisions:   r.Decisions.WithTx(tx),
		History:     r.History.WithTx(tx),
		AuditLogs:   r.AuditLogs.WithTx(tx),
	}
}
