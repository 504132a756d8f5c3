package db

import (
	"context"

	"material_lending/lending"
	"material_lending/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Material.Category")
}

func (r *Repo) FindDraft(ctx context.Context, userID uint) (*models.Request, error) {
	var req models.Request
	err := withLines(r.DB.WithContext(ctx)).
		Where("user_id = ? AND status = ?", userID, models.StatusDraft).
		Order("id").
		First(&req).Error
	if err != nil {
		return nil, wrap(err, "request", 0)
	}
	return &req, nil
}

func (r *Repo) FindRequest(ctx context.Context, id uint, lock bool) (*models.Request, error) {
	db := r.DB.WithContext(ctx)
	if lock {
		var row models.Request
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&row, "id = ?", id).Error; err != nil {
			return nil, wrap(err, "request", id)
		}
	}
	var req models.Request
	if err := withLines(db).First(&req, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "request", id)
	}
	return &req, nil
}

func (r *Repo) ListRequests(ctx context.Context, f lending.RequestFilter) ([]models.Request, error) {
	q := withLines(r.DB.WithContext(ctx)).Model(&models.Request{})
	switch {
	case len(f.Statuses) > 0:
		q = q.Where("status IN ?", f.Statuses)
	case !f.IncludeDrafts:
		q = q.Where("status <> ?", models.StatusDraft)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.RequestedFrom != nil {
		q = q.Where("requested_at >= ?", *f.RequestedFrom)
	}
	if f.RequestedTo != nil {
		q = q.Where("requested_at <= ?", *f.RequestedTo)
	}
	var rs []models.Request
	if err := q.Order("id").Find(&rs).Error; err != nil {
		return nil, err
	}
	return rs, nil
}

// 草稿唯一索引冲突时只回滚到 savepoint，调用方还能在同一事务里重读
func (r *Repo) CreateRequest(ctx context.Context, req *models.Request) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(req).Error
	})
}

func (r *Repo) UpdateRequest(ctx context.Context, req *models.Request) error {
	res := r.DB.WithContext(ctx).Model(&models.Request{}).
		Where("id = ?", req.ID).
		Updates(map[string]any{
			"status":       req.Status,
			"requested_at": req.RequestedAt,
			"approved_at":  req.ApprovedAt,
			"returned_at":  req.ReturnedAt,
			"updated_at":   gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return wrap(res.Error, "request", req.ID)
	}
	if res.RowsAffected == 0 {
		return lending.NewNotFoundError("request", req.ID)
	}
	return nil
}

// Items

func (r *Repo) CreateItem(ctx context.Context, it *models.RequestItem) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(it).Error
}

func (r *Repo) UpdateItem(ctx context.Context, it *models.RequestItem) error {
	res := r.DB.WithContext(ctx).Model(&models.RequestItem{}).
		Where("id = ?", it.ID).
		Updates(map[string]any{
			"quantity":       it.Quantity,
			"requested_days": it.RequestedDays,
			"due_date":       it.DueDate,
			"reserved_at":    it.ReservedAt,
			"returned":       it.Returned,
			"updated_at":     gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return wrap(res.Error, "request_item", it.ID)
	}
	if res.RowsAffected == 0 {
		return lending.NewNotFoundError("request_item", it.ID)
	}
	return nil
}

func (r *Repo) DeleteItem(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.RequestItem{}, id)
	if res.Error != nil {
		return wrap(res.Error, "request_item", id)
	}
	if res.RowsAffected == 0 {
		return lending.NewNotFoundError("request_item", id)
	}
	return nil
}
