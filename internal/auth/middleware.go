package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrMissingCredentials 请求未携带身份信息
var ErrMissingCredentials = errors.New("missing credentials")

// 网关注入的身份请求头
const (
	HeaderUserID       = "X-User-ID"
	HeaderUserRole     = "X-User-Role"
	HeaderDepartmentID = "X-Department-ID"
)

// IdentityResolver 从请求中解析调用者身份
type IdentityResolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// HeaderResolver 信任上游网关注入的身份请求头
type HeaderResolver struct{}

// NewHeaderResolver 创建请求头身份解析器
func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{}
}

// Resolve 读取 X-User-ID / X-User-Role / X-Department-ID
func (HeaderResolver) Resolve(r *http.Request) (Identity, error) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return Identity{}, ErrMissingCredentials
	}
	role, err := ParseRole(r.Header.Get(HeaderUserRole))
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		UserID:       userID,
		Role:         role,
		DepartmentID: strings.TrimSpace(r.Header.Get(HeaderDepartmentID)),
	}, nil
}

// Middleware 身份认证中间件,解析失败返回 401
func Middleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request)
		if err != nil {
			message := "invalid credentials"
			if errors.Is(err, ErrMissingCredentials) {
				message = "missing credentials"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": message,
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		// 将用户信息存储到上下文
		SetIdentity(c, id)
		c.Next()
	}
}
