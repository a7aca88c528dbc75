package repository

import (
	"gorm.io/gorm"

	"github.com/mautops/appraisal-gin/internal/model"
)

// ProfileRepository 用户档案仓储接口
type ProfileRepository interface {
	WithTx(tx *gorm.DB) ProfileRepository
	Create(profile *model.ProfileModel) error
	FindByID(id string) (*model.ProfileModel, error)
	FindByUserID(userID string) (*model.ProfileModel, error)
}

// profileRepository 用户档案仓储实现
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建用户档案仓储
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// WithTx 绑定事务
func (r *profileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	return &profileRepository{db: tx}
}

// Create 创建档案,同一身份重复创建返回 ConflictError
func (r *profileRepository) Create(profile *model.ProfileModel) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return translate(r.db.Create(profile).Error, "profile", profile.UserID)
}

// FindByID 根据 ID 查找档案
func (r *profileRepository) FindByID(id string) (*model.ProfileModel, error) {
	var p model.ProfileModel
	if err := r.db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "profile", id)
	}
	return &p, nil
}

// FindByUserID 根据身份 ID 查找档案
func (r *profileRepository) FindByUserID(userID string) (*model.ProfileModel, error) {
	var p model.ProfileModel
	if err := r.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "profile", userID)
	}
	return &p, nil
}
