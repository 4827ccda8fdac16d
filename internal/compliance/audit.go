package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog 是 compliance_audit_logs 表的 GORM 模型。
// 每次合规检查、每次人工豁免各写一行；只追加，不更新不删除。
type AuditLog struct {
	ID         string `gorm:"primaryKey;size:36"`
	ActionType string `gorm:"size:64;not null"` // assignment_check / driver_check / admin_override 等
	Endpoint   string `gorm:"size:128"`         // 触发检查的调用入口

	DriverID     string     `gorm:"index;size:36"`
	VehicleID    string     `gorm:"index;size:36"`
	AssignmentID string     `gorm:"index;size:36"`
	TourDate     *time.Time `gorm:"type:date"`

	Blocked          bool
	PrimaryViolation string `gorm:"size:255"`
	Violations       string `gorm:"type:text"` // 完整违规列表（JSON）

	Overridden     bool
	OverriddenBy   string `gorm:"size:36"`
	OverrideReason string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "compliance_audit_logs"
}

// AuditRepo 审计日志存储。
type AuditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, row *AuditLog) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// AuditEntry 一次待记录的合规动作。
type AuditEntry struct {
	ActionType string
	Endpoint   string

	DriverID     string
	VehicleID    string
	AssignmentID string
	TourDate     *time.Time

	// Result 为空时（如纯 override 记录）用 Blocked 字段兜底
	Result  *CheckResult
	Blocked bool

	Overridden     bool
	OverriddenBy   string
	OverrideReason string
}

// LogComplianceCheck 落一行审计。
// 审计是安全相关豁免的唯一凭证：写入失败必须向上抛，由调用方决定是否阻断动作。
func (s *Service) LogComplianceCheck(ctx context.Context, e AuditEntry) error {
	row := &AuditLog{
		ID:             uuid.NewString(),
		ActionType:     e.ActionType,
		Endpoint:       e.Endpoint,
		DriverID:       e.DriverID,
		VehicleID:      e.VehicleID,
		AssignmentID:   e.AssignmentID,
		TourDate:       e.TourDate,
		Blocked:        e.Blocked,
		Overridden:     e.Overridden,
		OverriddenBy:   e.OverriddenBy,
		OverrideReason: e.OverrideReason,
	}

	if e.Result != nil {
		row.Blocked = !e.Result.CanProceed
		if pv := e.Result.PrimaryViolation(); pv != nil {
			row.PrimaryViolation = pv.Message
		}
		data, err := json.Marshal(e.Result.Violations)
		if err != nil {
			return fmt.Errorf("marshal violations: %w", err)
		}
		row.Violations = string(data)
	}

	if err := s.audits.Append(ctx, row); err != nil {
		return fmt.Errorf("append compliance audit log: %w", err)
	}
	return nil
}
