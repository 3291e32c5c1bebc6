package readings

import (
	"context"
	"fmt"
	"strings"

	libdb "airmonitor/backend/libs/db"
	"airmonitor/backend/libs/dynamo"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

// StorageConfig selects and locates the readings store.
type StorageConfig struct {
	Driver         string `yaml:"driver" env:"STORAGE_DRIVER"`
	PostgresDSN    string `yaml:"postgresDsn" env:"POSTGRES_DSN"`
	DynamoTable    string `yaml:"dynamoTable" env:"DYNAMODB_TABLE_NAME"`
	DynamoEndpoint string `yaml:"dynamoEndpoint" env:"DYNAMODB_ENDPOINT"`
	AWSRegion      string `yaml:"awsRegion" env:"AWS_REGION"`
}

// DefaultStorage matches the table name the dashboard expects.
func DefaultStorage() StorageConfig {
	return StorageConfig{
		Driver:      DriverDynamoDB,
		DynamoTable: "air-monitor-readings",
		AWSRegion:   "us-east-1",
	}
}

// Validate checks that the selected driver has what it needs.
func (c StorageConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("readings: postgres dsn required")
		}
	case DriverDynamoDB:
		if strings.TrimSpace(c.DynamoTable) == "" {
			return fmt.Errorf("readings: dynamodb table required")
		}
	default:
		return fmt.Errorf("readings: unknown storage driver %q", c.Driver)
	}
	return nil
}

// Location names the table for health output.
func (c StorageConfig) Location() string {
	if strings.EqualFold(strings.TrimSpace(c.Driver), DriverPostgres) {
		return "readings"
	}
	return c.DynamoTable
}

// Open connects to the configured store. The returned close func releases it.
func Open(ctx context.Context, cfg StorageConfig) (Store, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverPostgres:
		sqlDB, err := libdb.Open(ctx, cfg.PostgresDSN, libdb.PoolOptions{})
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(sqlDB)
		if err := store.EnsureSchema(ctx); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return store, sqlDB.Close, nil
	default:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
		if err != nil {
			return nil, nil, err
		}
		return NewDynamoStore(client, cfg.DynamoTable), func() error { return nil }, nil
	}
}
