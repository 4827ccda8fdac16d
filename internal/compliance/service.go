package compliance

import (
	"context"
	"time"

	"github.com/VineLink/VineLink/internal/common/config"
	"github.com/VineLink/VineLink/internal/common/logger"
	"github.com/VineLink/VineLink/internal/driver"
	"github.com/VineLink/VineLink/internal/timecard"
	"github.com/VineLink/VineLink/internal/vehicle"
	"github.com/VineLink/VineLink/internal/violation"
)

// 存储依赖以接口注入，测试可以用内存 fake 替换，不需要真实 MySQL。
type (
	// DriverStore 司机资质读取。
	DriverStore interface {
		FindByID(ctx context.Context, id string) (*driver.Qualification, error)
	}

	// VehicleStore 车辆合规读取。
	VehicleStore interface {
		FindByID(ctx context.Context, id string) (*vehicle.Compliance, error)
		LatestDefectInspection(ctx context.Context, vehicleID string) (*vehicle.Inspection, error)
	}

	// ViolationStore 未处理违规计数。
	ViolationStore interface {
		CountOpenCritical(ctx context.Context, entityType violation.EntityType, entityID string) (int64, error)
	}

	// TimecardStore 工时聚合。
	TimecardStore interface {
		DailyActivityHours(ctx context.Context, driverID string, day time.Time, activities ...timecard.Activity) (float64, error)
		TotalHoursInWindow(ctx context.Context, driverID string, from, to time.Time) (float64, error)
	}

	// AuditStore 审计日志追加（append-only）。
	AuditStore interface {
		Append(ctx context.Context, row *AuditLog) error
	}
)

// Rules 合规判定用到的监管常量，由 config.ComplianceConfig 换算而来。
type Rules struct {
	MaxDailyDrivingHours float64
	MaxDailyOnDutyHours  float64
	MaxWeeklyOnDutyHours float64

	DrivingWarnMarginHours float64
	OnDutyWarnMarginHours  float64
	WeeklyWarnMarginHours  float64

	ExpiryLookaheadDays int
	ReviewMaxAgeDays    int
}

// RulesFromConfig 从配置段构造 Rules。
func RulesFromConfig(c config.ComplianceConfig) Rules {
	return Rules{
		MaxDailyDrivingHours:   c.MaxDailyDrivingHours,
		MaxDailyOnDutyHours:    c.MaxDailyOnDutyHours,
		MaxWeeklyOnDutyHours:   c.MaxWeeklyOnDutyHours,
		DrivingWarnMarginHours: c.DrivingWarnMarginHours,
		OnDutyWarnMarginHours:  c.OnDutyWarnMarginHours,
		WeeklyWarnMarginHours:  c.WeeklyWarnMarginHours,
		ExpiryLookaheadDays:    c.ExpiryLookaheadDays,
		ReviewMaxAgeDays:       c.ReviewMaxAgeDays,
	}
}

// Service 合规检查服务：对实体状态做纯函数式判定，唯一的副作用是审计写入。
type Service struct {
	drivers    DriverStore
	vehicles   VehicleStore
	violations ViolationStore
	timecards  TimecardStore
	audits     AuditStore

	rules Rules
	log   logger.Logger
	now   func() time.Time
}

// Option 服务可选项。
type Option func(*Service)

// WithClock 注入时钟，测试用固定时间保证到期判定可复现。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService 创建合规检查服务。
func NewService(
	drivers DriverStore,
	vehicles VehicleStore,
	violations ViolationStore,
	timecards TimecardStore,
	audits AuditStore,
	rules Rules,
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		drivers:    drivers,
		vehicles:   vehicles,
		violations: violations,
		timecards:  timecards,
		audits:     audits,
		rules:      rules,
		log:        log,
		now:        time.Now,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(s)
		}
	}
	return s
}
