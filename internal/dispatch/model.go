package dispatch

import "time"

// Status 派单状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending    Status = "pending"    // 已创建，待合规检查
	StatusCleared    Status = "cleared"    // 检查通过，待确认
	StatusBlocked    Status = "blocked"    // 检查拦截，等待处理/豁免
	StatusOverridden Status = "overridden" // 管理员豁免放行，待确认
	StatusConfirmed  Status = "confirmed"  // 已确认出团
	StatusCanceled   Status = "canceled"   // 已取消
)

// TourAssignment 派单 GORM 模型：一次“司机+车辆+出团日期”的指派及其合规结论快照。
type TourAssignment struct {
	ID string `gorm:"primaryKey;size:36"`

	BookingRef string    `gorm:"index;size:64"` // 关联的订单/行程号
	DriverID   string    `gorm:"index;size:36;not null"`
	VehicleID  string    `gorm:"index;size:36;not null"`
	TourDate   time.Time `gorm:"type:date;not null"`

	Status Status `gorm:"type:varchar(16);index;not null"`

	// 合规检查结论快照（拦截时供豁免流程使用）
	PrimaryViolation string `gorm:"size:255"`
	AllowsOverride   bool   `gorm:"not null;default:false"`

	OverriddenBy   string `gorm:"size:36"`
	OverrideReason string `gorm:"size:255"`

	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	ClearedAt    *time.Time
	BlockedAt    *time.Time
	OverriddenAt *time.Time
	ConfirmedAt  *time.Time
	CanceledAt   *time.Time
}

func (TourAssignment) TableName() string {
	return "tour_assignments"
}
