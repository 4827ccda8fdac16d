package violation

import (
	"time"
)

// EntityType 违规挂靠的实体类型。
type EntityType string

const (
	EntityDriver  EntityType = "driver"
	EntityVehicle EntityType = "vehicle"
)

// Severity 违规严重级别。
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Record 是 compliance_violations 表的 GORM 模型：
// 司机/车辆名下的违规条目，ResolvedAt 为 NULL 表示仍未处理。
type Record struct {
	ID          string     `gorm:"primaryKey;size:36"`
	EntityType  EntityType `gorm:"type:varchar(16);index:idx_violation_entity;not null"`
	EntityID    string     `gorm:"size:36;index:idx_violation_entity;not null"`
	Severity    Severity   `gorm:"type:varchar(16);not null"`
	Description string     `gorm:"size:255"`
	ResolvedAt  *time.Time // NULL = open

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Record) TableName() string {
	return "compliance_violations"
}
