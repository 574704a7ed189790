package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder map[int64]string

func (s stubFinder) Latest(_ context.Context, userID int64) (string, bool, error) {
	if userID < 0 {
		return "", false, errors.New("db down")
	}
	id, ok := s[userID]
	return id, ok, nil
}

func TestDeviceID(t *testing.T) {
	svc := NewService(stubFinder{42: "fcm-token-42"})

	id, err := svc.DeviceID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "fcm-token-42", *id)

	id, err = svc.DeviceID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = svc.DeviceID(context.Background(), -1)
	assert.Error(t, err)
	assert.Nil(t, id)
}
