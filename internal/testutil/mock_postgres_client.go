package testutil

import (
	"context"

	"github.com/cyclebill/cyclebill/internal/logger"
	"github.com/cyclebill/cyclebill/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

// MockPostgresClient is a mock implementation of postgres client for testing.
// Services only need WithTx's function-composition behavior; the in-memory
// stores never touch a Querier.
type MockPostgresClient struct {
	logger *logger.Logger
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) postgres.IClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function without a real transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Querier returns nil; in-memory repositories hold their own state
func (c *MockPostgresClient) Querier(ctx context.Context) postgres.Querier {
	return nil
}

// Close is a no-op
func (c *MockPostgresClient) Close() error {
	return nil
}
