package repository

import (
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/model"
)

// DepartmentRepository 部门仓储接口
type DepartmentRepository interface {
	WithTx(tx *gorm.DB) DepartmentRepository
	Create(dept *model.DepartmentModel) error
	FindByID(id string) (*model.DepartmentModel, error)
	FindByCode(code string) (*model.DepartmentModel, error)
	FindAll() ([]*model.DepartmentModel, error)
}

// departmentRepository 部门仓储实现
type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository 创建部门仓储
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// WithTx 绑定事务
func (r *departmentRepository) WithTx(tx *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: tx}
}

// Create 创建部门
func (r *departmentRepository) Create(dept *model.DepartmentModel) error {
	if err := dept.Validate(); err != nil {
		return err
	}
	return translate(r.db.Create(dept).Error, "department", dept.ID)
}

// FindByID 根据 ID 查找部门
func (r *departmentRepository) FindByID(id string) (*model.DepartmentModel, error) {
	var dept model.DepartmentModel
	if err := r.db.Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, translate(err, "department", id)
	}
	return &dept, nil
}

// FindByCode 根据编码查找部门
func (r *departmentRepository) FindByCode(code string) (*model.DepartmentModel, error) {
	var dept model.DepartmentModel
	if err := r.db.Where("code = ?", code).First(&dept).Error; err != nil {
		return nil, translate(err, "department", code)
	}
	return &dept, nil
}

// FindAll 查找所有部门
func (r *departmentRepository) FindAll() ([]*model.DepartmentModel, error) {
	var depts []*model.DepartmentModel
	err := r.db.Order("code ASC").Find(&depts).Error
	return depts, err
}
