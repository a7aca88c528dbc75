package repository

import (
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/model"
)

// SelfAppraisalRepository 自评仓储接口
type SelfAppraisalRepository interface {
	WithTx(tx *gorm.DB) SelfAppraisalRepository
	Create(a *model.SelfAppraisalModel) error
	Update(a *model.SelfAppraisalModel, expectedRevision int64) error
	FindByID(id string) (*model.SelfAppraisalModel, error)
	FindActive(facultyID, academicYear string) (*model.SelfAppraisalModel, error)
	FindByFilter(filter *SelfAppraisalFilter) ([]*model.SelfAppraisalModel, int64, error)
	CountByStatus() (map[string]int64, error)
}

// SelfAppraisalFilter 自评查询过滤器
type SelfAppraisalFilter struct {
	FacultyID         *string
	DepartmentID      *string
	AcademicYear      *string
	Status            *string
	IncludeSuperseded bool
	SortBy            string
	Order             string
	Page
}

// selfAppraisalRepository 自评仓储实现
type selfAppraisalRepository struct {
	db *gorm.DB
}

// NewSelfAppraisalRepository 创建自评仓储
func NewSelfAppraisalRepository(db *gorm.DB) SelfAppraisalRepository {
	return &selfAppraisalRepository{db: db}
}

// WithTx 绑定事务
func (r *selfAppraisalRepository) WithTx(tx *gorm.DB) SelfAppraisalRepository {
	return &selfAppraisalRepository{db: tx}
}

// Create 创建自评,违反学年唯一约束时返回 ConflictError
func (r *selfAppraisalRepository) Create(a *model.SelfAppraisalModel) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Revision == 0 {
		a.Revision = 1
	}
	return translate(r.db.Create(a).Error, "self_appraisal", a.ID)
}

// Update 按版本号条件更新
func (r *selfAppraisalRepository) Update(a *model.SelfAppraisalModel, expectedRevision int64) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return conditionalUpdate(r.db, a, a.TableName(), "self_appraisal", a.ID, &a.Revision, expectedRevision)
}

// FindByID 根据 ID 查找自评
func (r *selfAppraisalRepository) FindByID(id string) (*model.SelfAppraisalModel, error) {
	var a model.SelfAppraisalModel
	if err := r.db.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err, "self_appraisal", id)
	}
	return &a, nil
}

// FindActive 查找教师某学年未作废的自评
func (r *selfAppraisalRepository) FindActive(facultyID, academicYear string) (*model.SelfAppraisalModel, error) {
	var a model.SelfAppraisalModel
	err := r.db.Where("faculty_id = ? AND academic_year = ? AND superseded_at IS NULL", facultyID, academicYear).
		First(&a).Error
	if err != nil {
		return nil, translate(err, "self_appraisal", facultyID+"/"+academicYear)
	}
	return &a, nil
}

// FindByFilter 根据过滤器查找自评
func (r *selfAppraisalRepository) FindByFilter(filter *SelfAppraisalFilter) ([]*model.SelfAppraisalModel, int64, error) {
	if filter == nil {
		filter = &SelfAppraisalFilter{}
	}
	query := r.db.Model(&model.SelfAppraisalModel{})

	if filter.FacultyID != nil {
		query = query.Where("faculty_id = ?", *filter.FacultyID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filter.AcademicYear)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if !filter.IncludeSuperseded {
		query = query.Where("superseded_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := filter.Page.normalize()
	var list []*model.SelfAppraisalModel
	err := query.Order(orderClause(filter.SortBy, filter.Order)).
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

// CountByStatus 按状态统计未作废的自评数量
func (r *selfAppraisalRepository) CountByStatus() (map[string]int64, error) {
	return countByStatus(r.db.Model(&model.SelfAppraisalModel{}).Where("superseded_at IS NULL"), "status")
}

func countByStatus(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := query.Select(column + " AS status, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
