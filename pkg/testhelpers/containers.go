package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/databridge-io/databridge/pkg/capsule"
)

// StoreTestImage is the ClickHouse image used for integration tests.
const StoreTestImage = "clickhouse/clickhouse-server:24.8-alpine"

// TestStore holds a shared ClickHouse container and the descriptor that
// connects to it.
type TestStore struct {
	Container  testcontainers.Container
	Descriptor capsule.Descriptor
}

var (
	sharedTestStore     *TestStore
	sharedTestStoreOnce sync.Once
	sharedTestStoreErr  error
)

// GetTestStore returns a shared ClickHouse container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestStore(t *testing.T) *TestStore {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestStoreOnce.Do(func() {
		sharedTestStore, sharedTestStoreErr = setupTestStore()
	})

	if sharedTestStoreErr != nil {
		t.Fatalf("Failed to setup test store: %v", sharedTestStoreErr)
	}

	return sharedTestStore
}

func setupTestStore() (*TestStore, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        StoreTestImage,
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"CLICKHOUSE_DB":       "default",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "9000")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TestStore{
		Container: container,
		Descriptor: capsule.Descriptor{
			Host:     fmt.Sprintf("%s:%s", host, port.Port()),
			Database: "default",
			Username: "default",
			Password: "test_password",
		},
	}, nil
}
