// Package repository persists a local journal of research invocations.
package repository

import (
	"context"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// Store defines the journal operations.
type Store interface {
	// Invocation operations
	CreateInvocation(ctx context.Context, inv *domain.Invocation) error
	GetInvocation(ctx context.Context, invocationID string) (*domain.Invocation, error)
	UpdateInvocationRefs(ctx context.Context, invocationID, agentID, threadID, runID string) error
	CompleteInvocation(ctx context.Context, invocationID string, status domain.RunStatus, lastError, summaryPath string) error

	// Message operations
	CreateAgentMessage(ctx context.Context, msg *domain.JournalMessage) error
	ListAgentMessages(ctx context.Context, invocationID string) ([]domain.JournalMessage, error)

	// Event operations
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, invocationID string, types []domain.EventType) ([]domain.Event, error)

	// Lifecycle
	Close() error
}

// NopStore discards everything. It is used when no journal is configured.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) CreateInvocation(context.Context, *domain.Invocation) error { return nil }

func (NopStore) GetInvocation(context.Context, string) (*domain.Invocation, error) { return nil, nil }

func (NopStore) UpdateInvocationRefs(context.Context, string, string, string, string) error {
	return nil
}

func (NopStore) CompleteInvocation(context.Context, string, domain.RunStatus, string, string) error {
	return nil
}

func (NopStore) CreateAgentMessage(context.Context, *domain.JournalMessage) error { return nil }

func (NopStore) ListAgentMessages(context.Context, string) ([]domain.JournalMessage, error) {
	return nil, nil
}

func (NopStore) CreateEvent(context.Context, *domain.Event) error { return nil }

func (NopStore) GetEvents(context.Context, string, []domain.EventType) ([]domain.Event, error) {
	return nil, nil
}

func (NopStore) Close() error { return nil }

// Open returns a SQLite store for dsn, or a NopStore when dsn is empty.
func Open(dsn string) (Store, error) {
	if dsn == "" {
		return NopStore{}, nil
	}
	return NewSQLiteStore(dsn)
}
