package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mautops/appraisal-gin/internal/apperr"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/utils"
)

// ProfileService 档案和部门服务接口
type ProfileService interface {
	RegisterProfile(ctx context.Context, id auth.Identity, req *RegisterProfileRequest) (*model.ProfileModel, error)
	Me(ctx context.Context, id auth.Identity) (*model.ProfileModel, error)
	CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*model.DepartmentModel, error)
	ListDepartments(ctx context.Context) ([]*model.DepartmentModel, error)
}

// RegisterProfileRequest 注册档案请求,角色和部门取自调用者身份
type RegisterProfileRequest struct {
	FullName string `json:"full_name" binding:"required" validate:"required,max=255"`
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Position string `json:"position" validate:"max=128"`
}

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Code string `json:"code" validate:"required,max=32,alphanum"`
}

type profileService struct {
	base
}

// NewProfileService 创建档案服务
func NewProfileService(d Deps) ProfileService {
	return &profileService{base: newBase(d)}
}

// RegisterProfile 为当前身份注册档案,每个身份只能注册一次
func (s *profileService) RegisterProfile(ctx context.Context, id auth.Identity, req *RegisterProfileRequest) (*model.ProfileModel, error) {
	if err := utils.ValidateStruct("INVALID_PROFILE", "invalid profile", req); err != nil {
		return nil, err
	}
	if _, err := auth.ParseRole(string(id.Role)); err != nil {
		return nil, apperr.Validation("INVALID_ROLE", err.Error(), "role")
	}
	fullName, err := utils.TrimAndValidate("full_name", req.FullName, 255)
	if err != nil {
		return nil, err
	}

	profile := &model.ProfileModel{
		ID:       uuid.New().String(),
		UserID:   id.UserID,
		FullName: fullName,
		Email:    strings.TrimSpace(req.Email),
		Role:     string(id.Role),
		Position: strings.TrimSpace(req.Position),
	}

	err = s.inTx(ctx, func(tx *txScope) error {
		if id.Role != auth.RolePrincipal {
			if id.DepartmentID == "" {
				return apperr.Validation("DEPARTMENT_REQUIRED",
					fmt.Sprintf("%s profiles require a department", id.Role), "department_id")
			}
			if _, err := tx.repos.Departments.FindByID(id.DepartmentID); err != nil {
				if errors.Is(err, apperr.ErrNotFound) {
					return apperr.Validation("UNKNOWN_DEPARTMENT",
						fmt.Sprintf("department %q does not exist", id.DepartmentID), "department_id")
				}
				return err
			}
			dept := id.DepartmentID
			profile.DepartmentID = &dept
		}

		if err := tx.repos.Profiles.Create(profile); err != nil {
			return err
		}
		return tx.audit.RecordAction(ctx, id, "register_profile", "profile", profile.ID, map[string]interface{}{
			"role":          profile.Role,
			"department_id": profile.Department(),
		})
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Me 返回当前身份的档案
func (s *profileService) Me(ctx context.Context, id auth.Identity) (*model.ProfileModel, error) {
	return s.reads(ctx).Profiles.FindByUserID(id.UserID)
}

// CreateDepartment 创建部门,部门代码统一大写
func (s *profileService) CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*model.DepartmentModel, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct("INVALID_DEPARTMENT", "invalid department", req); err != nil {
		return nil, err
	}
	if err := utils.ValidateName("name", req.Name); err != nil {
		return nil, err
	}

	now := time.Now()
	dept := &model.DepartmentModel{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Code:      req.Code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reads(ctx).Departments.Create(dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// ListDepartments 列出全部部门
func (s *profileService) ListDepartments(ctx context.Context) ([]*model.DepartmentModel, error) {
	return s.reads(ctx).Departments.FindAll()
}
