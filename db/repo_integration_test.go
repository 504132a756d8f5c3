//go:build integration
// +build integration

package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"material_lending/db"
	"material_lending/lending"
	"material_lending/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) *db.Repo {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lending"),
		postgres.WithUsername("lending"),
		postgres.WithPassword("lending"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	conn, err := db.ConnectDB(dsn, zap.NewNop())
	require.NoError(t, err)
	return db.NewRepo(conn)
}

type fixture struct {
	student, other, professor *models.User
	camera                    *models.Material
}

func seed(t *testing.T, repo *db.Repo) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error
	f.student, err = repo.FindOrCreateUser(ctx, "Ana", "ana@school.test", models.RoleStudent)
	require.NoError(t, err)
	f.other, err = repo.FindOrCreateUser(ctx, "Bruno", "bruno@school.test", models.RoleStudent)
	require.NoError(t, err)
	f.professor, err = repo.FindOrCreateUser(ctx, "Lima", "lima@school.test", models.RoleProfessor)
	require.NoError(t, err)
	cat, err := repo.FindOrCreateCategory(ctx, "Photography")
	require.NoError(t, err)
	f.camera = &models.Material{Name: "Camera", Quantity: 5, MaxDaysPerRequest: 7, CategoryID: cat.ID}
	require.NoError(t, repo.UpsertMaterial(ctx, f.camera))
	return f
}

func available(t *testing.T, repo *db.Repo, id uint) int {
	m, err := repo.FindMaterial(context.Background(), id, false)
	require.NoError(t, err)
	return lending.AvailableQuantity(m)
}

func TestRepo_LendingScenario(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo)
	ctx := context.Background()
	svc := lending.NewService(repo, nil, lending.DefaultPolicy(), zap.NewNop())

	a, err := svc.CartFor(ctx, f.student)
	require.NoError(t, err)
	b, err := svc.CartFor(ctx, f.student)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = svc.AddToCart(ctx, f.student, f.camera.ID, 3, 5)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, f.student, f.camera.ID, 3, 5)
	assert.ErrorIs(t, err, lending.ErrInsufficientStock)

	r, err := svc.PlaceOrder(ctx, f.student)
	require.NoError(t, err)
	assert.Equal(t, 2, available(t, repo, f.camera.ID))

	_, err = svc.ConfirmAndReserve(ctx, f.professor, r.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, f.professor, r.ID)
	assert.ErrorIs(t, err, lending.ErrInvalidTransition)

	r, err = svc.MarkAsReturned(ctx, f.professor, r.ID)
	require.NoError(t, err)
	for _, it := range r.Items {
		assert.True(t, it.Returned)
	}
	assert.Equal(t, 5, available(t, repo, f.camera.ID))

	evs, err := repo.ListEvents(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, evs, 4)
}

func TestRepo_OneDraftPerUser(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.CreateRequest(ctx, &models.Request{Reference: "01HZZZZZZZZZZZZZZZZZZZZZZ1", UserID: f.student.ID, Status: models.StatusDraft}))
	err := repo.CreateRequest(ctx, &models.Request{Reference: "01HZZZZZZZZZZZZZZZZZZZZZZ2", UserID: f.student.ID, Status: models.StatusDraft})
	assert.Error(t, err)

	svc := lending.NewService(repo, nil, lending.DefaultPolicy(), nil)
	var wg sync.WaitGroup
	ids := make([]uint, 6)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r, err := svc.CartFor(ctx, f.other); err == nil {
				ids[i] = r.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestRepo_ConcurrentOrdersRespectStock(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo)
	ctx := context.Background()
	svc := lending.NewService(repo, nil, lending.DefaultPolicy(), nil)

	_, err := svc.AddToCart(ctx, f.student, f.camera.ID, 4, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, f.other, f.camera.ID, 4, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, u := range []*models.User{f.student, f.other} {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, u)
		}(i, u)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, errors.Is(err, lending.ErrInsufficientStock))
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, available(t, repo, f.camera.ID))
}

func TestRepo_NotFound(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	_, err := repo.FindMaterial(ctx, 404, true)
	assert.ErrorIs(t, err, lending.ErrNotFound)
	_, err = repo.FindRequest(ctx, 404, false)
	assert.ErrorIs(t, err, lending.ErrNotFound)
	_, err = repo.FindDraft(ctx, 404)
	assert.ErrorIs(t, err, lending.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteItem(ctx, 404), lending.ErrNotFound)
}
