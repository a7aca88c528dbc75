package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mautops/appraisal-gin/internal/auth"
	"github.com/mautops/appraisal-gin/internal/model"
	"github.com/mautops/appraisal-gin/internal/repository"
)

// contextKey 请求信息在 context 中的键
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	clientIPKey  contextKey = "ip"
	userAgentKey contextKey = "user_agent"
)

// WithRequestInfo 将请求信息写入 context,供审计日志使用
func WithRequestInfo(ctx context.Context, requestID, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	ctx = context.WithValue(ctx, clientIPKey, ip)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetRequestID 从 context 获取请求 ID
func GetRequestID(ctx context.Context) string {
	return stringFromContext(ctx, requestIDKey)
}

// GetClientIP 从 context 获取客户端 IP
func GetClientIP(ctx context.Context) string {
	return stringFromContext(ctx, clientIPKey)
}

// GetUserAgent 从 context 获取 User Agent
func GetUserAgent(ctx context.Context) string {
	return stringFromContext(ctx, userAgentKey)
}

// AuditLogService 审计日志服务
type AuditLogService interface {
	WithTx(repos *repository.Repositories) AuditLogService
	RecordAction(ctx context.Context, id auth.Identity, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// WithTx 在事务内写审计日志,与业务写入一同提交或回滚
func (s *auditLogService) WithTx(repos *repository.Repositories) AuditLogService {
	return &auditLogService{auditRepo: repos.AuditLogs}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	id auth.Identity,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	if details == nil {
		details = map[string]interface{}{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	// 创建审计日志
	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       id.UserID,
		Role:         string(id.Role),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    GetRequestID(ctx),
		IP:           GetClientIP(ctx),
		UserAgent:    GetUserAgent(ctx),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(auditLog)
}

// ListByResource 查询资源的审计日志
func (s *auditLogService) ListByResource(resourceType, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(resourceType, resourceID)
}
