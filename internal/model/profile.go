package model

import (
	"errors"
	"time"
)

// ProfileModel 用户档案数据模型
// 每个身份对应一个档案,角色创建后不可修改
type ProfileModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string    `gorm:"type:varchar(255);not null" json:"email"`
	Role         string    `gorm:"type:varchar(32);not null;index" json:"role"` // faculty/hod/principal
	DepartmentID *string   `gorm:"type:varchar(64);index" json:"department_id,omitempty"`
	Position     string    `gorm:"type:varchar(128)" json:"position,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (ProfileModel) TableName() string {
	return "profiles"
}

// Department 返回部门 ID,未设置时返回空串
func (pm *ProfileModel) Department() string {
	if pm.DepartmentID == nil {
		return ""
	}
	return *pm.DepartmentID
}

// Validate 验证档案模型
func (pm *ProfileModel) Validate() error {
	if pm.ID == "" {
		return errors.New("profile ID is required")
	}
	if pm.UserID == "" {
		return errors.New("user ID is required")
	}
	if pm.FullName == "" {
		return errors.New("full name is required")
	}
	if pm.Role == "" {
		return errors.New("role is required")
	}
	return nil
}
