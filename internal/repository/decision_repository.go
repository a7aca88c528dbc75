package repository

import (
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/model"
)

// DecisionRepository 最终决定仓储接口
type DecisionRepository interface {
	WithTx(tx *gorm.DB) DecisionRepository
	Create(d *model.DecisionModel) error
	Update(d *model.DecisionModel, expectedRevision int64) error
	FindByEvaluationID(evaluationID string) (*model.DecisionModel, error)
}

// decisionRepository 最终决定仓储实现
type decisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository 创建最终决定仓储
func NewDecisionRepository(db *gorm.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

// WithTx 绑定事务
func (r *decisionRepository) WithTx(tx *gorm.DB) DecisionRepository {
	return &decisionRepository{db: tx}
}

// Create 创建决定
func (r *decisionRepository) Create(d *model.DecisionModel) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Revision == 0 {
		d.Revision = 1
	}
	return translate(r.db.Create(d).Error, "decision", d.ID)
}

// Update 按版本号条件更新
func (r *decisionRepository) Update(d *model.DecisionModel, expectedRevision int64) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return conditionalUpdate(r.db, d, d.TableName(), "decision", d.ID, &d.Revision, expectedRevision)
}

// FindByEvaluationID 根据评价 ID 查找决定
func (r *decisionRepository) FindByEvaluationID(evaluationID string) (*model.DecisionModel, error) {
	var d model.DecisionModel
	if err := r.db.Where("evaluation_id = ?", evaluationID).First(&d).Error; err != nil {
		return nil, translate(err, "decision", evaluationID)
	}
	return &d, nil
}
