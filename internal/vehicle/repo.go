package vehicle

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// FindByID 查询车辆合规记录；不存在时返回 (nil, nil)，由上层按“不可核验即拦截”处理。
func (r *Repo) FindByID(ctx context.Context, id string) (*Compliance, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Compliance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repo) Upsert(ctx context.Context, v *Compliance) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Save(v).Error
}

// LatestDefectInspection 返回该车最近一次“发现缺陷”的巡检记录；没有则 (nil, nil)。
func (r *Repo) LatestDefectInspection(ctx context.Context, vehicleID string) (*Inspection, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ins Inspection
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND defects_found = ?", vehicleID, true).
		Order("inspected_at DESC").
		First(&ins).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ins, nil
}
