package db

import (
	"context"
	"fmt"

	"material_lending/models"
)

// 每次状态流转写一条审计记录
func (r *Repo) AppendEvent(ctx context.Context, ev *models.RequestEvent) error {
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("insert request event: %w", err)
	}
	return nil
}

func (r *Repo) ListEvents(ctx context.Context, requestID uint) ([]models.RequestEvent, error) {
	var evs []models.RequestEvent
	if err := r.DB.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("id").
		Find(&evs).Error; err != nil {
		return nil, err
	}
	return evs, nil
}
