package driver

import (
	"time"
)

// EmploymentStatus 雇佣状态（持久化为字符串）。
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "active"     // 在职
	EmploymentSuspended  EmploymentStatus = "suspended"  // 停职
	EmploymentTerminated EmploymentStatus = "terminated" // 离职
)

// Qualification 是 driver_qualifications 表的 GORM 模型：
// 每个司机一行，即 DQ file（49 CFR Part 391）的结构化摘要。
// 由 HR/后台流程维护；合规检查只读，不做删除（审计需要保留）。
type Qualification struct {
	ID               string           `gorm:"primaryKey;size:36"`
	Name             string           `gorm:"size:64"`
	Active           bool             `gorm:"not null;default:true"`
	EmploymentStatus EmploymentStatus `gorm:"type:varchar(16);not null;default:'active'"`

	// 证件/检查日期，未录入时为 NULL
	MedicalCertExpiresAt *time.Time // 体检证明（medical certificate）到期日
	LicenseExpiresAt     *time.Time // 驾照到期日
	LastMVRCheckAt       *time.Time // 最近一次 MVR 核查
	LastAnnualReviewAt   *time.Time // 最近一次年审
	RoadTestCompletedAt  *time.Time // 路考完成日（无到期概念）

	DQFileComplete bool `gorm:"not null;default:false"` // DQ file 是否齐全

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Qualification) TableName() string {
	return "driver_qualifications"
}
