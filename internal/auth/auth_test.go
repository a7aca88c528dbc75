package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mautops/appraisal-gin/internal/auth"
)

const testKid = "test-key"

type jwksServer struct {
	*httptest.Server
	key *rsa.PrivateKey
}

func newJWKSServer(t *testing.T) *jwksServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": testKid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return &jwksServer{Server: srv, key: key}
}

func (s *jwksServer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

func baseClaims(issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":           "user-1",
		"iss":           issuer,
		"exp":           time.Now().Add(time.Hour).Unix(),
		"department_id": "dept-1",
		"realm_access":  map[string]interface{}{"roles": []string{"offline_access", "faculty"}},
	}
}

// TestKeycloakTokenValidator_ValidToken 测试合法 Token
func TestKeycloakTokenValidator_ValidToken(t *testing.T) {
	srv := newJWKSServer(t)
	issuer := "https://keycloak.example.com/realms/college"
	v := auth.NewKeycloakTokenValidator(issuer, srv.URL, "appraisal")

	claims, err := v.ValidateToken(srv.sign(t, baseClaims(issuer)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	id, err := claims.Identity("appraisal")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: "user-1", Role: auth.RoleFaculty, DepartmentID: "dept-1"}, id)
}

// TestKeycloakTokenValidator_Rejects 测试非法 Token
func TestKeycloakTokenValidator_Rejects(t *testing.T) {
	srv := newJWKSServer(t)
	issuer := "https://keycloak.example.com/realms/college"
	v := auth.NewKeycloakTokenValidator(issuer, srv.URL, "")

	expired := baseClaims(issuer)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := baseClaims("https://other.example.com")

	cases := map[string]string{
		"expired":      srv.sign(t, expired),
		"wrong issuer": srv.sign(t, wrongIssuer),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateToken(token)
			assert.Error(t, err)
		})
	}

	// 未知 kid
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims(issuer))
	token.Header["kid"] = "unknown"
	signed, err := token.SignedString(srv.key)
	require.NoError(t, err)
	_, err = v.ValidateToken(signed)
	assert.Error(t, err)
}

// TestKeycloakClaims_Identity 测试角色优先级和客户端角色
func TestKeycloakClaims_Identity(t *testing.T) {
	claims := &auth.KeycloakClaims{}
	claims.Subject = "u"
	claims.RealmAccess.Roles = []string{"faculty"}
	claims.ResourceAccess = map[string]struct {
		Roles []string `json:"roles"`
	}{
		"appraisal": {Roles: []string{"principal"}},
	}

	id, err := claims.Identity("appraisal")
	require.NoError(t, err)
	assert.Equal(t, auth.RolePrincipal, id.Role)

	id, err = claims.Identity("")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleFaculty, id.Role)

	claims.RealmAccess.Roles = []string{"uma_authorization"}
	_, err = claims.Identity("")
	assert.Error(t, err)
}

func newRouter(resolver auth.IdentityResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.Middleware(resolver))
	r.GET("/me", func(c *gin.Context) {
		id, _ := auth.IdentityFromGin(c)
		c.JSON(http.StatusOK, id)
	})
	return r
}

// TestMiddleware_Keycloak 测试 Bearer Token 认证
func TestMiddleware_Keycloak(t *testing.T) {
	srv := newJWKSServer(t)
	issuer := "https://keycloak.example.com/realms/college"
	r := newRouter(auth.NewKeycloakTokenValidator(issuer, srv.URL, ""))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+srv.sign(t, baseClaims(issuer)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var id auth.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, auth.RoleFaculty, id.Role)
}

// TestMiddleware_Header 测试网关请求头认证
func TestMiddleware_Header(t *testing.T) {
	r := newRouter(auth.NewHeaderResolver())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(auth.HeaderUserID, "hod-1")
	req.Header.Set(auth.HeaderUserRole, "HOD")
	req.Header.Set(auth.HeaderDepartmentID, "dept-2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var id auth.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	assert.Equal(t, auth.Identity{UserID: "hod-1", Role: auth.RoleHOD, DepartmentID: "dept-2"}, id)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(auth.HeaderUserID, "x")
	req.Header.Set(auth.HeaderUserRole, "admin")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
