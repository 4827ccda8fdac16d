package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VineLink/VineLink/internal/common/logger"
	"github.com/VineLink/VineLink/internal/compliance"
	"github.com/google/uuid"
)

// 调用方错误与基础设施故障分开：网关据此决定 HTTP 状态码，
// 并且只让基础设施故障计入熔断器。
var (
	// ErrNotFound 派单不存在。
	ErrNotFound = errors.New("assignment not found")
	// ErrInvalidRequest 入参缺失或派单状态不允许该操作。
	ErrInvalidRequest = errors.New("invalid request")
)

// ComplianceChecker 派单依赖的合规检查入口（compliance.Service 实现）。
type ComplianceChecker interface {
	CheckAssignmentCompliance(ctx context.Context, driverID, vehicleID string, tourDate time.Time) (*compliance.AssignmentResult, error)
	LogComplianceCheck(ctx context.Context, e compliance.AuditEntry) error
}

// AssignmentStore 派单存储（Repo 实现；测试注入内存 fake）。
type AssignmentStore interface {
	Create(ctx context.Context, a *TourAssignment) error
	Update(ctx context.Context, a *TourAssignment) error
	GetByID(ctx context.Context, id string) (*TourAssignment, error)
	List(ctx context.Context, driverID string, status Status, offset, limit int) ([]TourAssignment, int64, error)
}

// Service 封装派单领域用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo    AssignmentStore
	checker ComplianceChecker
	log     logger.Logger
	now     func() time.Time
}

// Option 服务可选项。
type Option func(*Service)

// WithClock 注入时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo AssignmentStore, checker ComplianceChecker, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		checker: checker,
		log:     log,
		now:     time.Now,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(s)
		}
	}
	return s
}

// RequestAssignmentInput 发起派单的入参。
type RequestAssignmentInput struct {
	BookingRef string
	DriverID   string
	VehicleID  string
	TourDate   time.Time
	Endpoint   string // 审计用：触发本次检查的调用入口
}

// RequestAssignment 创建派单并执行合规检查，按结论流转到 cleared / blocked。
// 检查报错时派单停留在 pending 并向上抛错：读不到数据不能当作放行。
func (s *Service) RequestAssignment(ctx context.Context, in RequestAssignmentInput) (*TourAssignment, *compliance.AssignmentResult, error) {
	if s == nil || s.repo == nil || s.checker == nil {
		return nil, nil, fmt.Errorf("service not initialized")
	}
	driverID := strings.TrimSpace(in.DriverID)
	vehicleID := strings.TrimSpace(in.VehicleID)
	if driverID == "" || vehicleID == "" {
		return nil, nil, fmt.Errorf("%w: driver_id and vehicle_id required", ErrInvalidRequest)
	}
	if in.TourDate.IsZero() {
		return nil, nil, fmt.Errorf("%w: tour_date required", ErrInvalidRequest)
	}

	a := &TourAssignment{
		ID:         uuid.NewString(),
		BookingRef: strings.TrimSpace(in.BookingRef),
		DriverID:   driverID,
		VehicleID:  vehicleID,
		TourDate:   in.TourDate,
		Status:     StatusPending,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, nil, err
	}

	res, err := s.checker.CheckAssignmentCompliance(ctx, driverID, vehicleID, in.TourDate)
	if err != nil {
		return nil, nil, fmt.Errorf("assignment compliance check: %w", err)
	}

	target := StatusCleared
	if !res.CanProceed {
		target = StatusBlocked
	}
	a.AllowsOverride = res.AllowsAdminOverride
	if pv := res.PrimaryViolation(); pv != nil {
		a.PrimaryViolation = pv.Message
	}
	if err := ApplyTransition(a, target, s.now()); err != nil {
		return nil, nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, nil, err
	}

	// 检查结论已经落库，审计失败要上报日志但不回滚结论
	td := res.TourDate
	if err := s.checker.LogComplianceCheck(ctx, compliance.AuditEntry{
		ActionType:   "assignment_check",
		Endpoint:     in.Endpoint,
		DriverID:     driverID,
		VehicleID:    vehicleID,
		AssignmentID: a.ID,
		TourDate:     &td,
		Result:       &res.CheckResult,
	}); err != nil && s.log != nil {
		s.log.Errorf("audit write failed for assignment %s: %v", a.ID, err)
	}

	return a, res, nil
}

// ApplyOverride 管理员豁免一个被拦截的派单。
// 审计行是豁免的唯一凭证：先写审计，写不进去就不放行（fail-closed）。
func (s *Service) ApplyOverride(ctx context.Context, assignmentID, operatorID, reason string) (*TourAssignment, error) {
	if s == nil || s.repo == nil || s.checker == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	assignmentID = strings.TrimSpace(assignmentID)
	operatorID = strings.TrimSpace(operatorID)
	reason = strings.TrimSpace(reason)
	if assignmentID == "" {
		return nil, fmt.Errorf("%w: assignment_id required", ErrInvalidRequest)
	}
	if operatorID == "" {
		return nil, fmt.Errorf("%w: operator id required", ErrInvalidRequest)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: override reason required", ErrInvalidRequest)
	}

	a, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusBlocked {
		return nil, fmt.Errorf("%w: assignment %s is not blocked (status=%s)", ErrInvalidRequest, assignmentID, a.Status)
	}
	if !a.AllowsOverride {
		return nil, fmt.Errorf("%w: assignment %s violations do not permit override", ErrInvalidRequest, assignmentID)
	}

	td := a.TourDate
	if err := s.checker.LogComplianceCheck(ctx, compliance.AuditEntry{
		ActionType:     "admin_override",
		DriverID:       a.DriverID,
		VehicleID:      a.VehicleID,
		AssignmentID:   a.ID,
		TourDate:       &td,
		Blocked:        true,
		Overridden:     true,
		OverriddenBy:   operatorID,
		OverrideReason: reason,
	}); err != nil {
		return nil, fmt.Errorf("override not applied, audit write failed: %w", err)
	}

	if err := ApplyTransition(a, StatusOverridden, s.now()); err != nil {
		return nil, err
	}
	a.OverriddenBy = operatorID
	a.OverrideReason = reason
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Confirm 确认出团（cleared / overridden -> confirmed）。
func (s *Service) Confirm(ctx context.Context, assignmentID string) (*TourAssignment, error) {
	return s.transition(ctx, assignmentID, StatusConfirmed)
}

// Cancel 取消派单。
func (s *Service) Cancel(ctx context.Context, assignmentID string) (*TourAssignment, error) {
	return s.transition(ctx, assignmentID, StatusCanceled)
}

func (s *Service) transition(ctx context.Context, assignmentID string, to Status) (*TourAssignment, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" {
		return nil, fmt.Errorf("%w: assignment_id required", ErrInvalidRequest)
	}
	a, err := s.repo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := ApplyTransition(a, to, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssignments 按司机/状态过滤的分页查询。
func (s *Service) ListAssignments(ctx context.Context, driverID string, status Status, offset, limit int) ([]TourAssignment, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, strings.TrimSpace(driverID), status, offset, limit)
}

// GetAssignment 查询派单。
func (s *Service) GetAssignment(ctx context.Context, id string) (*TourAssignment, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id required", ErrInvalidRequest)
	}
	return s.repo.GetByID(ctx, id)
}
