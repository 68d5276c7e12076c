package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// ErrPollTimeout is returned when RESEARCH_MAX_WAIT elapses before the run ends.
var ErrPollTimeout = errors.New("run did not reach a terminal status in time")

// Poll waits for run to leave queued/in_progress. Each iteration sleeps the
// poll interval, refreshes the run, and prints the latest agent message if it
// has not been printed yet. Without a max wait it polls until the run ends.
func (o *Orchestrator) Poll(ctx context.Context, threadID string, run *domain.Run) (*domain.Run, error) {
	var deadline time.Time
	if o.config.MaxWait > 0 {
		deadline = o.now().Add(o.config.MaxWait)
	}

	tracker := NewResponseTracker(o.out, func(msg *domain.Message) {
		o.journalMessage(ctx, msg)
	})
	lastStatus := run.Status

	for run.Status.IsPending() {
		if !deadline.IsZero() && !o.now().Before(deadline) {
			return run, fmt.Errorf("%w (waited %s, last status %s)", ErrPollTimeout, o.config.MaxWait, run.Status)
		}
		if err := o.sleep(ctx, o.config.PollInterval); err != nil {
			return run, err
		}

		next, err := o.agents.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return run, err
		}
		run = next

		latest, err := o.agents.GetLastMessageByRole(ctx, threadID, domain.MessageRoleAgent)
		if err != nil {
			return run, err
		}
		tracker.Observe(latest)

		fmt.Fprintf(o.out, "Run status: %s\n", run.Status)
		if run.Status != lastStatus {
			o.logger.Debug("run status changed",
				zap.String("run_id", run.ID),
				zap.String("from", string(lastStatus)),
				zap.String("to", string(run.Status)))
			o.recordEvent(ctx, domain.EventTypeRunStatus, map[string]string{
				"run_id": run.ID,
				"from":   string(lastStatus),
				"to":     string(run.Status),
			})
			lastStatus = run.Status
		}
	}
	return run, nil
}

func (o *Orchestrator) journalMessage(ctx context.Context, msg *domain.Message) {
	entry := &domain.JournalMessage{
		MessageID:    msg.ID,
		InvocationID: o.invocationID,
		Text:         strings.Join(msg.TextSegments(), "\n"),
		Citations:    msg.URLCitations(),
		CreatedAt:    o.now(),
	}
	if err := o.store.CreateAgentMessage(ctx, entry); err != nil {
		o.logger.Error("failed to journal agent message", zap.String("message_id", msg.ID), zap.Error(err))
	}
	o.recordEvent(ctx, domain.EventTypeAgentMessage, map[string]string{"message_id": msg.ID})
}
