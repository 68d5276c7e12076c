// Package service drives a deep research run on the remote agent service:
// it provisions an agent, posts the query, polls the run while surfacing new
// agent output, and writes the final summary.
package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/config"
	"github.com/xiaot623/gogo/research/internal/domain"
	"github.com/xiaot623/gogo/research/internal/repository"
)

// Agent record defaults.
const (
	DefaultAgentName    = "my-agent"
	DefaultInstructions = "You are a helpful agent that assists in researching scientific topics."
)

// AgentService is the remote agent service as seen by the orchestrator.
// Every call is attempted exactly once.
type AgentService interface {
	GetConnection(ctx context.Context, name string) (*domain.Connection, error)
	CreateAgent(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateThread(ctx context.Context) (*domain.Thread, error)
	CreateMessage(ctx context.Context, threadID string, role domain.MessageRole, content string) (*domain.Message, error)
	CreateRun(ctx context.Context, threadID, agentID string) (*domain.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error)
	// GetLastMessageByRole returns nil, nil when the thread has no message by role.
	GetLastMessageByRole(ctx context.Context, threadID string, role domain.MessageRole) (*domain.Message, error)
}

// Orchestrator runs one research invocation. It is not safe for concurrent use.
type Orchestrator struct {
	agents AgentService
	store  repository.Store
	config *config.Config
	out    io.Writer
	logger *zap.Logger

	agentName    string
	instructions string
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time

	invocationID string
}

// New creates an orchestrator. Progress lines are written to out.
func New(agents AgentService, store repository.Store, cfg *config.Config, out io.Writer, logger *zap.Logger) *Orchestrator {
	if store == nil {
		store = repository.NopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		agents:       agents,
		store:        store,
		config:       cfg,
		out:          out,
		logger:       logger,
		agentName:    DefaultAgentName,
		instructions: DefaultInstructions,
		sleep:        sleepContext,
		now:          time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
