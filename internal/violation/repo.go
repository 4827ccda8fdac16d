package violation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CountOpenCritical 统计某实体名下未处理的 critical 违规数。
// 合规检查只关心这一个维度：severity = critical 且 resolved_at IS NULL。
func (r *Repo) CountOpenCritical(ctx context.Context, entityType EntityType, entityID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&Record{}).
		Where("entity_type = ? AND entity_id = ? AND severity = ? AND resolved_at IS NULL",
			entityType, entityID, SeverityCritical).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) Create(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}
