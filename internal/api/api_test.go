package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mautops/appraisal-gin/internal/api"
	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/config"
	"github.com/mautops/appraisal-gin/internal/database"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/repository"
	"github.com/mautops/appraisal-gin/internal/scoring"
	"github.com/mautops/appraisal-gin/internal/service"
)

var (
	faculty   = auth.Identity{UserID: "fac-1", Role: auth.RoleFaculty, DepartmentID: "d1"}
	hod       = auth.Identity{UserID: "hod-1", Role: auth.RoleHOD, DepartmentID: "d1"}
	otherHOD  = auth.Identity{UserID: "hod-2", Role: auth.RoleHOD, DepartmentID: "d2"}
	principal = auth.Identity{UserID: "pri-1", Role: auth.RolePrincipal}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code       int                `json:"code"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination api.PaginationInfo `json:"pagination"`
}

type record struct {
	ID                  string  `json:"id"`
	Status              string  `json:"status"`
	Revision            int64   `json:"revision"`
	TotalScore          float64 `json:"total_score"`
	NormalizedScore     float64 `json:"normalized_score"`
	PerformanceCategory string  `json:"performance_category"`
	FinalDecision       string  `json:"final_decision"`
}

func newRouter(t *testing.T, mutate func(*api.RouterOptions)) *gin.Engine {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	weights, err := scoring.NewProvider(scoring.DefaultWeightTable())
	require.NoError(t, err)

	deps := service.Deps{DB: db, Repos: repository.NewRepositories(db)}
	profiles := service.NewProfileService(deps)

	ctx := context.Background()
	for _, d := range []struct{ id, name, code string }{{"d1", "Computer Science", "CSE"}, {"d2", "Electronics", "ECE"}} {
		require.NoError(t, deps.Repos.Departments.Create(&model.DepartmentModel{ID: d.id, Name: d.name, Code: d.code}))
	}
	for _, id := range []auth.Identity{faculty, hod, otherHOD, principal} {
		_, err := profiles.RegisterProfile(ctx, id, &service.RegisterProfileRequest{
			FullName: "User " + id.UserID,
			Email:    id.UserID + "@college.edu",
		})
		require.NoError(t, err)
	}

	opts := api.RouterOptions{
		DB:       db,
		Resolver: auth.NewHeaderResolver(),
		Services: api.Services{
			Profiles:    profiles,
			Intake:      service.NewIntakeService(deps, weights),
			Evaluations: service.NewEvaluationService(deps, weights),
			Decisions:   service.NewDecisionService(deps),
			Query:       service.NewQueryService(deps),
		},
		CORS: config.Default().CORS,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return api.SetupRoutes(opts)
}

func do(t *testing.T, router http.Handler, method, path string, id *auth.Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req.Header.Set(auth.HeaderUserID, id.UserID)
		req.Header.Set(auth.HeaderUserRole, string(id.Role))
		req.Header.Set(auth.HeaderDepartmentID, id.DepartmentID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) record {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var r record
	require.NoError(t, json.Unmarshal(env.Data, &r))
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func sampleMetrics() scoring.Metrics {
	return scoring.Metrics{
		Courses: datatypes.JSONSlice[scoring.CourseEntry]{
			{Semester: "I", CourseName: "Data Structures", PeriodsTaught: 60, StudentsAppeared: 45, StudentsPassed: 42, TimesTaught: 2, AssessmentScore: 35},
		},
		Projects: datatypes.JSONSlice[scoring.ProjectEntry]{
			{Program: "B.Tech", StudentNames: "A, B", ProjectType: scoring.ProjectMajor, Title: "Compiler", Type: "inhouse", AssessmentScore: 8},
		},
		TeachingLoadHours:       intp(16),
		TotalClassesTaken:       intp(120),
		StudentFeedbackScore:    floatp(8),
		CourseFilesPrepared:     intp(2),
		LabManualsPrepared:      intp(1),
		QuestionPapersSet:       intp(2),
		ResearchPapersPublished: intp(2),
		BooksAuthored:           intp(0),
		PatentsFiled:            intp(1),
		ResearchProjects:        intp(1),
		ConsultancyProjects:     intp(0),
		PhdGuidance:             intp(0),
		ConferencesAttended:     intp(1),
		WorkshopsAttended:       intp(2),
		SeminarsConducted:       intp(0),
		OnlineCoursesCompleted:  intp(1),
		CertificationsObtained:  intp(1),
		AdministrativeRoles:     intp(1),
		CommitteeMemberships:    intp(2),
		InstitutionalActivities: intp(1),
	}
}

func fullRatings(v int) scoring.Ratings {
	return scoring.Ratings{
		DomainKnowledge:          intp(v),
		ClassControlInnovation:   intp(v),
		StudentMentoring:         intp(v),
		InitiativeDrive:          intp(v),
		TaskCompletion:           intp(v),
		PolicyCompliance:         intp(v),
		AttirePunctuality:        intp(v),
		LeavePermissions:         intp(v),
		CollegialityTeamwork:     intp(v),
		AdministrativeEfficiency: intp(v),
	}
}

// submitAppraisal 通过 HTTP 创建、填写并提交一份自评
func submitAppraisal(t *testing.T, router http.Handler) record {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/v1/appraisals", &faculty, gin.H{"academic_year": "2024-2025"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decodeRecord(t, rec)

	rec = do(t, router, http.MethodPut, "/api/v1/appraisals/"+a.ID, &faculty, service.UpdateDraftRequest{
		Designation:        "Associate Professor",
		Metrics:            sampleMetrics(),
		SignatureConfirmed: true,
		Revision:           a.Revision,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a = decodeRecord(t, rec)

	rec = do(t, router, http.MethodPost, "/api/v1/appraisals/"+a.ID+"/submit", &faculty, api.RevisionRequest{Revision: a.Revision})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeRecord(t, rec)
}

// TestHealth 测试健康检查
func TestHealth(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"healthy"`)
}

// TestMetricsEndpoint 测试指标端点不需要认证
func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(t, nil)
	do(t, router, http.MethodGet, "/health", nil, nil)

	rec := do(t, router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "api_requests_total")
}

// TestAuthRequired 测试缺少身份时返回 401
func TestAuthRequired(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/appraisals", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals", &auth.Identity{UserID: "x", Role: "dean"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestRequestID 测试请求 ID 透传与生成
func TestRequestID(t *testing.T) {
	router := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(api.HeaderRequestID))

	rec = do(t, router, http.MethodGet, "/health", nil, nil)
	assert.Len(t, rec.Header().Get(api.HeaderRequestID), 36)
}

// TestSecurityHeaders 测试安全响应头
func TestSecurityHeaders(t *testing.T) {
	router := newRouter(t, func(o *api.RouterOptions) { o.Production = true })

	rec := do(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

// TestCORSPreflight 测试预检请求
func TestCORSPreflight(t *testing.T) {
	router := newRouter(t, func(o *api.RouterOptions) {
		o.CORS.AllowedOrigins = []string{"https://portal.college.edu"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/appraisals", nil)
	req.Header.Set("Origin", "https://portal.college.edu")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portal.college.edu", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), auth.HeaderUserRole)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/appraisals", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// TestRateLimit 测试限流
func TestRateLimit(t *testing.T) {
	router := newRouter(t, func(o *api.RouterOptions) {
		o.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})

	rec := do(t, router, http.MethodGet, "/api/v1/departments", &faculty, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/v1/departments", &faculty, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// 健康检查不受限流影响
	rec = do(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestProfiles 测试档案接口
func TestProfiles(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/profiles/me", &hod, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"hod-1"`)

	newcomer := auth.Identity{UserID: "fac-9", Role: auth.RoleFaculty, DepartmentID: "d2"}
	rec = do(t, router, http.MethodGet, "/api/v1/profiles/me", &newcomer, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/profiles", &newcomer, gin.H{"full_name": "New Faculty", "email": "nf@college.edu"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/profiles", &newcomer, gin.H{"full_name": "New Faculty", "email": "nf@college.edu"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/departments", &newcomer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ECE"`)
}

// TestFullCycle 测试完整考核流程
func TestFullCycle(t *testing.T) {
	router := newRouter(t, nil)
	a := submitAppraisal(t, router)
	assert.Equal(t, "submitted", a.Status)
	assert.InDelta(t, 164.1, a.TotalScore, 0.01)

	rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+a.ID+"/evaluation", &hod, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	e := decodeRecord(t, rec)
	assert.Equal(t, "under_review", e.Status)

	rec = do(t, router, http.MethodPut, "/api/v1/evaluations/"+e.ID+"/ratings", &hod, gin.H{
		"ratings":                 fullRatings(8),
		"hod_signature_confirmed": true,
		"revision":                e.Revision,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	e = decodeRecord(t, rec)

	rec = do(t, router, http.MethodPost, "/api/v1/evaluations/"+e.ID+"/submit", &hod, api.RevisionRequest{Revision: e.Revision})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	e = decodeRecord(t, rec)
	assert.Equal(t, "reviewed", e.Status)
	assert.InDelta(t, 58.84, e.NormalizedScore, 0.01)

	rec = do(t, router, http.MethodPost, "/api/v1/evaluations/"+e.ID+"/decision", &principal, gin.H{
		"final_decision": "approved",
		"observations":   "well done",
		"revision":       e.Revision,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decodeRecord(t, rec).FinalDecision)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals/"+a.ID+"/evaluation", &faculty, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finalized", decodeRecord(t, rec).Status)

	rec = do(t, router, http.MethodGet, "/api/v1/evaluations/"+e.ID+"/decision", &faculty, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals/"+a.ID+"/history", &principal, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var history []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	// draft 创建 + 提交 + 评价开启(两条) + 评价提交 + 最终决定
	assert.Len(t, history, 6)
}

// TestErrorMapping 测试业务错误到 HTTP 状态码的映射
func TestErrorMapping(t *testing.T) {
	router := newRouter(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/appraisals", &faculty, gin.H{"academic_year": "2023-2024"})
	require.Equal(t, http.StatusCreated, rec.Code)
	draft := decodeRecord(t, rec)

	t.Run("validation", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/submit", &faculty, api.RevisionRequest{Revision: draft.Revision})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "validation", resp.ErrorKind)
		assert.Equal(t, "SIGNATURE_REQUIRED", resp.Reason)
	})

	t.Run("state", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/evaluation", &hod, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "state", decodeError(t, rec).ErrorKind)
	})

	t.Run("authorization", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/evaluation", &faculty, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "authorization", decodeError(t, rec).ErrorKind)
	})

	t.Run("concurrency", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+draft.ID+"/discard", &faculty, api.RevisionRequest{Revision: draft.Revision + 5})
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
		assert.Equal(t, "concurrency", decodeError(t, rec).ErrorKind)
	})

	t.Run("not found", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/appraisals/missing-id", &principal, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).ErrorKind)

		// 其他部门的记录与不存在的记录返回相同结果
		rec = do(t, router, http.MethodGet, "/api/v1/appraisals/"+draft.ID, &otherHOD, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeError(t, rec).ErrorKind)
	})

	t.Run("conflict", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals", &faculty, gin.H{"academic_year": "2023-2024"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decodeError(t, rec).ErrorKind)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals", &faculty, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, decodeError(t, rec).ErrorKind)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/appraisals/bad%20id", &principal, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v2/nothing", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestSentBackOverHTTP 测试退回后重新评价
func TestSentBackOverHTTP(t *testing.T) {
	router := newRouter(t, nil)
	a := submitAppraisal(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/appraisals/"+a.ID+"/evaluation", &hod, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	e := decodeRecord(t, rec)
	rec = do(t, router, http.MethodPut, "/api/v1/evaluations/"+e.ID+"/ratings", &hod, gin.H{
		"ratings":                 fullRatings(7),
		"hod_signature_confirmed": true,
		"revision":                e.Revision,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	e = decodeRecord(t, rec)
	rec = do(t, router, http.MethodPost, "/api/v1/evaluations/"+e.ID+"/submit", &hod, api.RevisionRequest{Revision: e.Revision})
	require.Equal(t, http.StatusOK, rec.Code)
	e = decodeRecord(t, rec)

	body := gin.H{"final_decision": "sent_back", "observations": "recheck ratings", "revision": e.Revision}
	rec = do(t, router, http.MethodPost, "/api/v1/evaluations/"+e.ID+"/decision", &principal, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 重复退回不产生任何变化
	rec = do(t, router, http.MethodPost, "/api/v1/evaluations/"+e.ID+"/decision", &principal, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/evaluations/"+e.ID, &hod, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "under_review", decodeRecord(t, rec).Status)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals/"+a.ID, &faculty, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "submitted", decodeRecord(t, rec).Status)
}

// TestListPagination 测试列表分页与角色范围
func TestListPagination(t *testing.T) {
	router := newRouter(t, nil)
	for _, year := range []string{"2021-2022", "2022-2023", "2023-2024"} {
		rec := do(t, router, http.MethodPost, "/api/v1/appraisals", &faculty, gin.H{"academic_year": year})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, router, http.MethodGet, "/api/v1/appraisals?page=1&page_size=2", &faculty, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, int64(3), env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPage)
	var items []record
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 2)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals?academic_year=2022-2023", &hod, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, int64(1), env.Pagination.Total)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals", &otherHOD, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, int64(0), env.Pagination.Total)

	rec = do(t, router, http.MethodGet, "/api/v1/appraisals?department_id=d1", &otherHOD, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/evaluations?status=reviewed", &principal, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"total":0`))
}
