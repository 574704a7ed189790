package matching

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaseStore_Reserve(t *testing.T) {
	client, mock := redismock.NewClientMock()
	leases := NewLeaseStore(client)

	mock.ExpectSetNX("matching:worker:7:lease", "req-1", 30*time.Second).SetVal(true)
	mock.ExpectSetNX("matching:worker:7:lease", "req-2", 30*time.Second).SetVal(false)

	ok, err := leases.Reserve(context.Background(), 7, "req-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = leases.Reserve(context.Background(), 7, "req-2", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaseStore_DefaultTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectSetNX("matching:worker:3:lease", "req", defaultLeaseTTL).SetVal(true)

	ok, err := NewLeaseStore(client).Reserve(context.Background(), 3, "req", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
