package vehicle

import (
	"time"
)

// DefectSeverity 巡检缺陷严重级别。
type DefectSeverity string

const (
	DefectCritical DefectSeverity = "critical" // 禁止出车，修复前不得运营
	DefectMajor    DefectSeverity = "major"
	DefectMinor    DefectSeverity = "minor"
)

// Compliance 是 vehicle_compliances 表的 GORM 模型：每台车一行的合规摘要。
// 由车队管理流程维护；合规检查只读。
type Compliance struct {
	ID          string `gorm:"primaryKey;size:36"`
	PlateNumber string `gorm:"uniqueIndex;size:32;not null"`
	VIN         string `gorm:"size:64"`
	Model       string `gorm:"size:64"`
	Active      bool   `gorm:"not null;default:true"`

	// 证件/检查日期，未录入时为 NULL
	RegistrationExpiresAt *time.Time // 行驶登记到期日
	InsuranceExpiresAt    *time.Time // 保险到期日
	LastDOTInspectionAt   *time.Time // 最近一次 DOT 年检（49 CFR 396.17）

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Compliance) TableName() string {
	return "vehicle_compliances"
}

// Inspection 是 vehicle_inspections 表的 GORM 模型：一台车可有多条巡检记录。
type Inspection struct {
	ID             string         `gorm:"primaryKey;size:36"`
	VehicleID      string         `gorm:"index;size:36;not null"`
	InspectedAt    time.Time      `gorm:"index;not null"`
	DefectsFound   bool           `gorm:"not null;default:false"`
	DefectSeverity DefectSeverity `gorm:"type:varchar(16)"` // 仅 DefectsFound 时有意义

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Inspection) TableName() string {
	return "vehicle_inspections"
}
