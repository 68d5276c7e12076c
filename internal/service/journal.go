package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// startInvocation assigns an invocation id and journals the query.
func (o *Orchestrator) startInvocation(ctx context.Context, query string) {
	o.invocationID = "inv_" + uuid.New().String()[:8]
	inv := &domain.Invocation{
		InvocationID: o.invocationID,
		Query:        query,
		StartedAt:    o.now(),
	}
	if err := o.store.CreateInvocation(ctx, inv); err != nil {
		o.logger.Error("failed to journal invocation", zap.Error(err))
		return
	}
	o.recordEvent(ctx, domain.EventTypeInvocationStarted, map[string]string{"query": query})
}

func (o *Orchestrator) journalRefs(ctx context.Context, agentID, threadID, runID string) {
	if err := o.store.UpdateInvocationRefs(ctx, o.invocationID, agentID, threadID, runID); err != nil {
		o.logger.Error("failed to journal remote ids", zap.Error(err))
	}
}

func (o *Orchestrator) journalOutcome(ctx context.Context, run *domain.Run, summaryPath string) {
	lastError := ""
	if run.LastError != nil {
		lastError = run.LastError.String()
	}
	if err := o.store.CompleteInvocation(ctx, o.invocationID, run.Status, lastError, summaryPath); err != nil {
		o.logger.Error("failed to journal outcome", zap.Error(err))
	}
}

// recordEvent journals an event. Journal failures never affect the run.
func (o *Orchestrator) recordEvent(ctx context.Context, eventType domain.EventType, payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		o.logger.Error("failed to marshal event payload", zap.String("type", string(eventType)), zap.Error(err))
		return
	}

	event := &domain.Event{
		EventID:      "evt_" + uuid.New().String()[:8],
		InvocationID: o.invocationID,
		Ts:           o.now().UnixMilli(),
		Type:         eventType,
		Payload:      payloadBytes,
	}
	if err := o.store.CreateEvent(ctx, event); err != nil {
		o.logger.Error("failed to record event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

// InvocationID returns the id of the current invocation, empty before Run.
func (o *Orchestrator) InvocationID() string {
	return o.invocationID
}

// cleanupTimeout bounds agent deletion after the caller's context is gone.
const cleanupTimeout = 10 * time.Second
