//go:build integration
// +build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"material_lending/session"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	addr, err := c.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestAppSessionStore(t *testing.T) {
	ctx := context.Background()
	store := session.NewAppSessionStore(setupRedis(t), time.Hour)

	a, err := store.Issue(ctx, 7)
	require.NoError(t, err)
	b, err := store.Issue(ctx, 7)
	require.NoError(t, err)
	other, err := store.Issue(ctx, 8)
	require.NoError(t, err)

	as, err := store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, uint(7), as.UserID)
	assert.Equal(t, int64(3600), as.ExpiresAt-as.IssuedAt)

	require.NoError(t, store.Delete(ctx, a))
	_, err = store.Get(ctx, a)
	assert.ErrorIs(t, err, session.ErrNoSession)

	require.NoError(t, store.RevokeAllForUser(ctx, 7))
	_, err = store.Get(ctx, b)
	assert.ErrorIs(t, err, session.ErrNoSession)

	_, err = store.Get(ctx, other)
	assert.NoError(t, err)
}
