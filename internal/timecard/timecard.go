package timecard

import (
	"time"
)

// Activity 工时段的活动类型。
type Activity string

const (
	ActivityDriving Activity = "driving" // 驾驶
	ActivityOnDuty  Activity = "on_duty" // 执勤非驾驶（检查车辆、接待、装卸等）
	ActivityOffDuty Activity = "off_duty"
)

// Card 是 time_cards 表的 GORM 模型：一个司机一天可以有多段记录，
// 每段带活动类型与折算小时数。HOS 核算按天/滚动 7 天做 SUM 聚合。
type Card struct {
	ID       string    `gorm:"primaryKey;size:36"`
	DriverID string    `gorm:"index:idx_timecard_driver_date;size:36;not null"`
	WorkDate time.Time `gorm:"index:idx_timecard_driver_date;type:date;not null"` // 归属日期（按日聚合的 key）

	ClockInAt  time.Time  `gorm:"not null"`
	ClockOutAt *time.Time // 未下班时为 NULL

	Activity   Activity `gorm:"type:varchar(16);not null"`
	TotalHours float64  `gorm:"not null;default:0"` // 该段折算小时数

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Card) TableName() string {
	return "time_cards"
}
