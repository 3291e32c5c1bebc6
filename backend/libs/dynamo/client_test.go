package dynamo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateAWSConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_PROFILE", "")
}

func TestNewClient_DefaultsRegion(t *testing.T) {
	isolateAWSConfig(t)

	client, err := NewClient(context.Background(), " ", "")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", client.Options().Region)
	assert.Nil(t, client.Options().BaseEndpoint)
}

func TestNewClient_LocalEndpoint(t *testing.T) {
	isolateAWSConfig(t)

	client, err := NewClient(context.Background(), "eu-west-1", "http://localhost:8000")
	require.NoError(t, err)
	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:8000", *opts.BaseEndpoint)
}
