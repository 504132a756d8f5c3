package lending

import (
	"context"
	"time"

	"material_lending/models"
)

// MaterialFilter narrows catalog reads. Zero value means everything.
type MaterialFilter struct {
	CategoryID uint
	Q          string
}

// RequestFilter narrows request reads. Zero value means every non-draft request.
type RequestFilter struct {
	Statuses      []models.Status
	UserID        uint
	RequestedFrom *time.Time
	RequestedTo   *time.Time
	IncludeDrafts bool
}

// Store is the persistence boundary of the lifecycle.
//
// Material reads preload RequestItems with their Request so accounting can be derived.
// Request reads preload User and Items.Material.Category. A missing record yields an
// error matching ErrNotFound.
type Store interface {
	// Transaction runs fn against a Store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindUser(ctx context.Context, id uint) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	ListMaterials(ctx context.Context, f MaterialFilter) ([]models.Material, error)
	// FindMaterial with lock=true holds the material row until the transaction ends.
	FindMaterial(ctx context.Context, id uint, lock bool) (*models.Material, error)

	FindDraft(ctx context.Context, userID uint) (*models.Request, error)
	FindRequest(ctx context.Context, id uint, lock bool) (*models.Request, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]models.Request, error)
	CreateRequest(ctx context.Context, r *models.Request) error
	UpdateRequest(ctx context.Context, r *models.Request) error

	CreateItem(ctx context.Context, it *models.RequestItem) error
	UpdateItem(ctx context.Context, it *models.RequestItem) error
	DeleteItem(ctx context.Context, id uint) error

	AppendEvent(ctx context.Context, ev *models.RequestEvent) error
	ListEvents(ctx context.Context, requestID uint) ([]models.RequestEvent, error)
}
