package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// Role 能力标签
type Role string

const (
	RoleFaculty   Role = "faculty"
	RoleHOD       Role = "hod"
	RolePrincipal Role = "principal"
)

// ParseRole 解析角色,忽略大小写
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleFaculty:
		return RoleFaculty, nil
	case RoleHOD:
		return RoleHOD, nil
	case RolePrincipal:
		return RolePrincipal, nil
	}
	return "", errors.New("unknown role: " + s)
}

// Identity 调用者身份,由外部认证组件提供并显式传入每个核心操作
type Identity struct {
	UserID       string `json:"user_id"`
	Role         Role   `json:"role"`
	DepartmentID string `json:"department_id,omitempty"`
}

// identityKey gin 上下文中的身份键
const identityKey = "identity"

// SetIdentity 写入 gin 上下文
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
	c.Set("user_id", id.UserID)
}

// IdentityFromGin 从 gin 上下文读取身份
func IdentityFromGin(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
