package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolOptionsDefaults(t *testing.T) {
	got := PoolOptions{}.withDefaults()
	assert.Equal(t, PoolOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}, got)

	got = PoolOptions{MaxOpenConns: 1, MaxIdleConns: 4}.withDefaults()
	assert.Equal(t, 1, got.MaxIdleConns)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), " ", PoolOptions{})
	assert.EqualError(t, err, "db: empty DSN")
}
