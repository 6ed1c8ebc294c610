package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestGormStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a postgres container")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("domainguessr"),
		postgres.WithUsername("guessr"),
		postgres.WithPassword("guessr"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, pg)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := OpenPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	storeContract(t, store)
}
