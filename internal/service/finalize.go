package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// Result describes what an invocation did.
type Result struct {
	InvocationID   string
	AgentID        string
	ThreadID       string
	RunID          string
	Status         domain.RunStatus
	LastError      *domain.RunError
	SummaryPath    string // empty when no summary was written
	AgentDeleted   bool
	AgentRetained  bool
	AgentDeleteErr error
}

// Run executes a whole invocation for query. Errors while creating the
// agent, thread, message or run are returned as-is without cleanup. A run
// that ends in "failed" is not an error: it is reported and finalized.
func (o *Orchestrator) Run(ctx context.Context, query string) (*Result, error) {
	o.startInvocation(ctx, query)
	result := &Result{InvocationID: o.invocationID}

	agent, err := o.ProvisionAgent(ctx)
	if err != nil {
		return result, err
	}
	result.AgentID = agent.ID

	conv, err := o.StartConversation(ctx, agent.ID, query)
	if err != nil {
		return result, err
	}
	result.ThreadID = conv.Thread.ID
	result.RunID = conv.Run.ID

	run, pollErr := o.Poll(ctx, conv.Thread.ID, conv.Run)
	result.Status = run.Status
	result.LastError = run.LastError

	switch {
	case pollErr == nil, errors.Is(pollErr, ErrPollTimeout):
	case ctx.Err() != nil:
		// Interrupted: nothing to summarize, but do not leave the agent behind.
		fmt.Fprintf(o.out, "Interrupted while waiting for run %s.\n", run.ID)
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		o.cleanupAgent(cleanupCtx, agent.ID, result)
		o.journalOutcome(cleanupCtx, run, "")
		return result, pollErr
	default:
		return result, pollErr
	}

	finErr := o.Finalize(ctx, conv.Thread.ID, run, agent.ID, result)
	if pollErr != nil {
		return result, pollErr
	}
	return result, finErr
}

// Finalize reports the terminal status, writes the summary of the last agent
// message if there is one, and deletes the agent. Summary and deletion are
// independent: a failed deletion never removes a written summary, and a failed
// fetch or write still lets the agent be deleted. A run that is still pending
// here was cut short by the max wait and is reported as such.
func (o *Orchestrator) Finalize(ctx context.Context, threadID string, run *domain.Run, agentID string, result *Result) error {
	if run.Status.IsPending() {
		fmt.Fprintf(o.out, "Stopped waiting for run %s after %s; last status: %s\n", run.ID, o.config.MaxWait, run.Status)
	} else {
		fmt.Fprintf(o.out, "Run finished with status: %s, ID: %s\n", run.Status, run.ID)
	}
	if run.Status == domain.RunStatusFailed {
		fmt.Fprintf(o.out, "Run failed: %s\n", run.LastError.String())
	}

	summaryPath, err := o.writeSummary(ctx, threadID)

	o.recordEvent(ctx, domain.EventTypeRunFinished, map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	})
	o.journalOutcome(ctx, run, summaryPath)

	o.cleanupAgent(ctx, agentID, result)
	result.SummaryPath = summaryPath
	return err
}

// writeSummary fetches the last agent message and writes it to the summary
// path. It returns the path written, empty when nothing was written.
func (o *Orchestrator) writeSummary(ctx context.Context, threadID string) (string, error) {
	final, err := o.agents.GetLastMessageByRole(ctx, threadID, domain.MessageRoleAgent)
	if err != nil {
		o.logger.Error("failed to fetch final agent message", zap.String("thread_id", threadID), zap.Error(err))
		fmt.Fprintf(o.out, "Could not fetch the final agent message: %v\n", err)
		return "", err
	}
	if final == nil {
		fmt.Fprintln(o.out, "No agent message to summarize; research summary not written.")
		return "", nil
	}

	path := o.config.SummaryPath
	if err := WriteSummary(path, final); err != nil {
		o.logger.Error("failed to write research summary", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(o.out, "Could not write research summary: %v\n", err)
		return "", err
	}
	fmt.Fprintf(o.out, "Research summary written to '%s'.\n", path)
	o.recordEvent(ctx, domain.EventTypeSummaryWritten, map[string]string{
		"path":       path,
		"message_id": final.ID,
	})
	return path, nil
}

// cleanupAgent deletes the agent unless it is retained. Failures are logged only.
func (o *Orchestrator) cleanupAgent(ctx context.Context, agentID string, result *Result) {
	if o.config.KeepAgent {
		result.AgentRetained = true
		fmt.Fprintf(o.out, "Keeping agent %s (KEEP_AGENT is set).\n", agentID)
		return
	}

	if err := o.agents.DeleteAgent(ctx, agentID); err != nil {
		result.AgentDeleteErr = err
		o.logger.Error("failed to delete agent", zap.String("agent_id", agentID), zap.Error(err))
		fmt.Fprintf(o.out, "Failed to delete agent %s: %v\n", agentID, err)
		return
	}
	result.AgentDeleted = true
	fmt.Fprintln(o.out, "Deleted agent")
	o.recordEvent(ctx, domain.EventTypeAgentDeleted, map[string]string{"agent_id": agentID})
}
