package app

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	store, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverMemory}, log.WithField("test", "memory-storage"))
	require.NoError(t, err)
	require.NotNil(t, store.orders)
	require.NotNil(t, store.timeline)
	require.NotNil(t, store.outbox)
	require.NotNil(t, store.products)
	require.Nil(t, store.pg)
	require.NoError(t, store.ping(context.Background()))
	require.NoError(t, store.close())
}

func TestInitStorage_PostgresRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverPostgres}, log.WithField("test", "postgres-missing-dsn"))
	require.Error(t, err)
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{StorageDriver: "sqlite"}, log.WithField("test", "unsupported-driver"))
	require.Error(t, err)
}
