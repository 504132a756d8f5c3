// db/repo_catalog.go
package db

import (
	"context"
	"errors"
	"strings"

	"material_lending/lending"
	"material_lending/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 借出数量由 RequestItems + Request.Status 实时计算，所以物料读取总是预加载它们
func withAccounting(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("RequestItems.Request")
}

func (r *Repo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cs []models.Category
	if err := r.DB.WithContext(ctx).Order("name").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *Repo) ListMaterials(ctx context.Context, f lending.MaterialFilter) ([]models.Material, error) {
	q := withAccounting(r.DB.WithContext(ctx)).Model(&models.Material{})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pat, pat)
	}
	var ms []models.Material
	if err := q.Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	return ms, nil
}

func (r *Repo) FindMaterial(ctx context.Context, id uint, lock bool) (*models.Material, error) {
	db := r.DB.WithContext(ctx)
	// 1) 先单独锁住物料行（预加载的子查询不带 FOR UPDATE）
	if lock {
		var row models.Material
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&row, "id = ?", id).Error; err != nil {
			return nil, wrap(err, "material", id)
		}
	}
	// 2) 再带上借用明细读取
	var m models.Material
	if err := withAccounting(db).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "material", id)
	}
	return &m, nil
}

// 以下供 lendctl seed 使用

func (r *Repo) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := models.Category{Name: strings.TrimSpace(name)}
	if err := r.DB.WithContext(ctx).Where("name = ?", c.Name).FirstOrCreate(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertMaterial 以 (category_id, name) 为键更新库存与期限
func (r *Repo) UpsertMaterial(ctx context.Context, m *models.Material) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Material
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("category_id = ? AND name = ?", m.CategoryID, m.Name).
			First(&existing).Error
		switch {
		case err == nil:
			m.ID = existing.ID
			return tx.Model(&existing).Updates(map[string]any{
				"description":          m.Description,
				"quantity":             m.Quantity,
				"max_days_per_request": m.MaxDaysPerRequest,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(m).Error
		default:
			return err
		}
	})
}
