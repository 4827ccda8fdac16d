package timecard

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// DailyActivityHours 汇总某司机某天指定活动类型的小时数。
func (r *Repo) DailyActivityHours(ctx context.Context, driverID string, day time.Time, activities ...Activity) (float64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	if len(activities) == 0 {
		return 0, fmt.Errorf("at least one activity required")
	}
	var total float64
	err := r.db.WithContext(ctx).Model(&Card{}).
		Select("COALESCE(SUM(total_hours), 0)").
		Where("driver_id = ? AND work_date = ? AND activity IN ?", driverID, dateOnly(day), activities).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalHoursInWindow 汇总某司机在 [from, to] 闭区间内所有工时段的小时数（off_duty 不计）。
func (r *Repo) TotalHoursInWindow(ctx context.Context, driverID string, from, to time.Time) (float64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total float64
	err := r.db.WithContext(ctx).Model(&Card{}).
		Select("COALESCE(SUM(total_hours), 0)").
		Where("driver_id = ? AND work_date BETWEEN ? AND ? AND activity <> ?",
			driverID, dateOnly(from), dateOnly(to), ActivityOffDuty).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) Create(ctx context.Context, c *Card) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(c).Error
}

// dateOnly 截断到 UTC 日期，保证 DATE 列比较不受时分秒影响。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
