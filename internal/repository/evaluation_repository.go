package repository

import (
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/model"
)

// EvaluationRepository 主管评价仓储接口
type EvaluationRepository interface {
	WithTx(tx *gorm.DB) EvaluationRepository
	Create(e *model.EvaluationModel) error
	Update(e *model.EvaluationModel, expectedRevision int64) error
	FindByID(id string) (*model.EvaluationModel, error)
	FindByAppraisalID(appraisalID string) (*model.EvaluationModel, error)
	FindByFilter(filter *EvaluationFilter) ([]*model.EvaluationModel, int64, error)
	CountByStatus() (map[string]int64, error)
}

// EvaluationFilter 评价查询过滤器,部门和学年取自关联的自评
type EvaluationFilter struct {
	DepartmentID *string
	AcademicYear *string
	Status       *string
	EvaluatorID  *string
	FacultyID    *string
	SortBy       string
	Order        string
	Page
}

// evaluationRepository 主管评价仓储实现
type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository 创建主管评价仓储
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

// WithTx 绑定事务
func (r *evaluationRepository) WithTx(tx *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: tx}
}

// Create 创建评价,同一自评重复创建返回 ConflictError
func (r *evaluationRepository) Create(e *model.EvaluationModel) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Revision == 0 {
		e.Revision = 1
	}
	return translate(r.db.Create(e).Error, "evaluation", e.ID)
}

// Update 按版本号条件更新
func (r *evaluationRepository) Update(e *model.EvaluationModel, expectedRevision int64) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return conditionalUpdate(r.db, e, e.TableName(), "evaluation", e.ID, &e.Revision, expectedRevision)
}

// FindByID 根据 ID 查找评价
func (r *evaluationRepository) FindByID(id string) (*model.EvaluationModel, error) {
	var e model.EvaluationModel
	if err := r.db.Where("id = ?", id).First(&e).Error; err != nil {
		return nil, translate(err, "evaluation", id)
	}
	return &e, nil
}

// FindByAppraisalID 根据自评 ID 查找评价
func (r *evaluationRepository) FindByAppraisalID(appraisalID string) (*model.EvaluationModel, error) {
	var e model.EvaluationModel
	if err := r.db.Where("appraisal_id = ?", appraisalID).First(&e).Error; err != nil {
		return nil, translate(err, "evaluation", appraisalID)
	}
	return &e, nil
}

// FindByFilter 根据过滤器查找评价
func (r *evaluationRepository) FindByFilter(filter *EvaluationFilter) ([]*model.EvaluationModel, int64, error) {
	if filter == nil {
		filter = &EvaluationFilter{}
	}
	query := r.db.Model(&model.EvaluationModel{}).
		Joins("JOIN self_appraisals ON self_appraisals.id = evaluations.appraisal_id")

	if filter.DepartmentID != nil {
		query = query.Where("self_appraisals.department_id = ?", *filter.DepartmentID)
	}
	if filter.AcademicYear != nil {
		query = query.Where("self_appraisals.academic_year = ?", *filter.AcademicYear)
	}
	if filter.FacultyID != nil {
		query = query.Where("self_appraisals.faculty_id = ?", *filter.FacultyID)
	}
	if filter.Status != nil {
		query = query.Where("evaluations.status = ?", *filter.Status)
	}
	if filter.EvaluatorID != nil {
		query = query.Where("evaluations.evaluator_id = ?", *filter.EvaluatorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := filter.Page.normalize()
	var list []*model.EvaluationModel
	err := query.Select("evaluations.*").
		Order("evaluations." + orderClause(filter.SortBy, filter.Order)).
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

// CountByStatus 按状态统计评价数量
func (r *evaluationRepository) CountByStatus() (map[string]int64, error) {
	return countByStatus(r.db.Model(&model.EvaluationModel{}), "status")
}
