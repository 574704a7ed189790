package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    []RideType
	listErr error
	lists   int
	created []RideTypeInput
}

func (f *fakeStore) List(_ context.Context) ([]RideType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]RideType, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*RideType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rt := range f.rows {
		if rt.ID == id {
			v := rt
			return &v, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Create(_ context.Context, in RideTypeInput) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rt := range f.rows {
		if rt.Name == in.Name {
			return 0, ErrConflict
		}
	}
	f.created = append(f.created, in)
	id := int64(len(f.rows) + 1)
	f.rows = append(f.rows, RideType{ID: id, Name: in.Name, BaseFare: in.BaseFare, PerKm: in.PerKm, PerMin: in.PerMin})
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, in RideTypeInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rt := range f.rows {
		if rt.ID == id {
			f.rows[i] = RideType{ID: id, Name: in.Name, BaseFare: in.BaseFare, PerKm: in.PerKm, PerMin: in.PerMin}
			return nil
		}
	}
	return ErrNotFound
}

func seedRows() []RideType {
	return []RideType{
		{ID: 1, Name: "economy", BaseFare: 500, PerKm: 100, PerMin: 50},
		{ID: 2, Name: "premium", BaseFare: 900, PerKm: 180, PerMin: 80},
	}
}

func TestFare(t *testing.T) {
	tests := []struct {
		name     string
		rt       RideType
		meters   float64
		seconds  float64
		wantFare int64
	}{
		{
			name:     "documented example",
			rt:       RideType{BaseFare: 500, PerKm: 100, PerMin: 50},
			meters:   2500,
			seconds:  600,
			wantFare: 1250,
		},
		{
			// combined rounding would give 3
			name:     "terms rounded independently",
			rt:       RideType{BaseFare: 0, PerKm: 1, PerMin: 1},
			meters:   1500,
			seconds:  90,
			wantFare: 4,
		},
		{
			name:     "fractional rate rounds down below half",
			rt:       RideType{BaseFare: 300, PerKm: 0.5, PerMin: 0},
			meters:   2500,
			seconds:  60,
			wantFare: 301,
		},
		{
			name:     "zero rates leave the base fare",
			rt:       RideType{BaseFare: 700},
			meters:   12000,
			seconds:  1800,
			wantFare: 700,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fare(tt.rt, tt.meters, tt.seconds); got != tt.wantFare {
				t.Errorf("Fare() = %d, want %d", got, tt.wantFare)
			}
		})
	}
}

func TestFindByName(t *testing.T) {
	rt, ok := FindByName(seedRows(), "premium")
	assert.True(t, ok)
	assert.Equal(t, int64(2), rt.ID)

	_, ok = FindByName(seedRows(), "Premium")
	assert.False(t, ok, "lookup is case sensitive")
}

func TestRideTypes_CacheHitSkipsTable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &fakeStore{rows: seedRows()}
	svc := NewService(store, NewCache(client, time.Hour), nil)

	payload, err := json.Marshal(seedRows()[:1])
	require.NoError(t, err)
	mock.ExpectGet(rideTypesKey).SetVal(string(payload))

	got, err := svc.RideTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "economy", got[0].Name)
	assert.Equal(t, 0, store.lists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideTypes_MissLoadsAndWritesBack(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &fakeStore{rows: seedRows()}
	svc := NewService(store, NewCache(client, time.Hour), nil)

	payload, err := json.Marshal(seedRows())
	require.NoError(t, err)
	mock.ExpectGet(rideTypesKey).RedisNil()
	mock.ExpectSet(rideTypesKey, payload, time.Hour).SetVal("OK")

	got, err := svc.RideTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, store.lists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideTypes_CacheErrorsFallBackToTable(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &fakeStore{rows: seedRows()}
	svc := NewService(store, NewCache(client, time.Hour), nil)

	payload, err := json.Marshal(seedRows())
	require.NoError(t, err)
	mock.ExpectGet(rideTypesKey).SetErr(errors.New("connection refused"))
	mock.ExpectSet(rideTypesKey, payload, time.Hour).SetErr(errors.New("connection refused"))

	got, err := svc.RideTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideTypes_TableErrorPropagates(t *testing.T) {
	storeErr := errors.New("db down")
	svc := NewService(&fakeStore{listErr: storeErr}, nil, nil)

	_, err := svc.RideTypes(context.Background())
	assert.ErrorIs(t, err, storeErr)
}

func TestLookup(t *testing.T) {
	svc := NewService(&fakeStore{rows: seedRows()}, nil, nil)

	rt, ok, err := svc.Lookup(context.Background(), "economy")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(500), rt.BaseFare)

	_, ok, err = svc.Lookup(context.Background(), "helicopter")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreate_InvalidatesCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &fakeStore{rows: seedRows()}
	svc := NewService(store, NewCache(client, time.Hour), nil)

	mock.ExpectDel(rideTypesKey).SetVal(1)

	id, err := svc.Create(context.Background(), RideTypeInput{Name: "xl", BaseFare: 800, PerKm: 150, PerMin: 60})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, nil)

	for _, in := range []RideTypeInput{
		{Name: "", BaseFare: 1},
		{Name: "neg", BaseFare: -1},
		{Name: "neg-km", PerKm: -0.1},
	} {
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidRideType)
	}
	assert.Empty(t, store.created)
}

func TestCreate_DuplicateNameConflicts(t *testing.T) {
	svc := NewService(&fakeStore{rows: seedRows()}, nil, nil)

	_, err := svc.Create(context.Background(), RideTypeInput{Name: "economy", BaseFare: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdate_MissingRow(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(&fakeStore{rows: seedRows()}, NewCache(client, time.Hour), nil)

	err := svc.Update(context.Background(), 99, RideTypeInput{Name: "ghost", BaseFare: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	// no invalidation when nothing changed
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWarm(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(&fakeStore{}, NewCache(client, time.Hour), nil)

	n, err := svc.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())

	store := &fakeStore{rows: seedRows()}
	svc = NewService(store, NewCache(client, time.Hour), nil)
	payload, err := json.Marshal(seedRows())
	require.NoError(t, err)
	mock.ExpectSet(rideTypesKey, payload, time.Hour).SetVal("OK")

	n, err = svc.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
