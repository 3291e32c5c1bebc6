package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"airmonitor/backend/libs/readings"
)

type fakeStore struct {
	mu     sync.Mutex
	stored []readings.Reading
	err    error
}

func (f *fakeStore) Put(_ context.Context, r readings.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, r)
	return nil
}

func (f *fakeStore) PutBatch(ctx context.Context, rs []readings.Reading) error {
	for _, r := range rs {
		if err := f.Put(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) Recent(context.Context, readings.Query) ([]readings.Reading, error) {
	return nil, nil
}

func (f *fakeStore) DeviceIDs(context.Context) ([]string, error) { return nil, nil }

func (f *fakeStore) Ping(context.Context) error { return f.err }

type fakePublisher struct {
	published []readings.Reading
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, r readings.Reading) error {
	f.published = append(f.published, r)
	return f.err
}

func newService(store readings.Store, pub Publisher) *IngestService {
	svc := NewIngestService(store, pub, zap.NewNop())
	svc.now = func() time.Time { return time.UnixMilli(1715342400000) }
	return svc
}

func TestIngest_StoresAndPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}

	r, err := newService(store, pub).Ingest(context.Background(), []byte(`{"deviceId":"air-monitor-02","co2":455}`))
	require.NoError(t, err)

	assert.Equal(t, int64(1715342400000), r.Timestamp)
	assert.Equal(t, []readings.Reading{r}, store.stored)
	assert.Equal(t, []readings.Reading{r}, pub.published)
}

func TestIngest_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("redis down")}

	_, err := newService(store, pub).Ingest(context.Background(), []byte(`{"co2":455}`))
	require.NoError(t, err)
	assert.Len(t, store.stored, 1)
}

func TestIngest_NilPublisher(t *testing.T) {
	_, err := newService(&fakeStore{}, nil).Ingest(context.Background(), []byte(`{"co2":455}`))
	require.NoError(t, err)
}

func TestIngest_InputErrors(t *testing.T) {
	store := &fakeStore{}
	_, err := newService(store, nil).Ingest(context.Background(), []byte(`{"deviceId":"air-monitor-02"}`))

	require.ErrorIs(t, err, readings.ErrNoSensorData)
	assert.True(t, IsInputError(err))
	assert.Empty(t, store.stored)
}

func TestIngest_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("table not found")}
	_, err := newService(store, nil).Ingest(context.Background(), []byte(`{"co2":455}`))

	require.ErrorIs(t, err, ErrStore)
	assert.False(t, IsInputError(err))
	assert.Contains(t, err.Error(), "table not found")
}
