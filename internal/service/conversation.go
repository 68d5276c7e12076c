package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// Conversation holds the records created by StartConversation.
type Conversation struct {
	Thread  *domain.Thread
	Message *domain.Message
	Run     *domain.Run
}

// StartConversation creates a thread, posts query as a user message and starts a run.
func (o *Orchestrator) StartConversation(ctx context.Context, agentID, query string) (*Conversation, error) {
	thread, err := o.agents.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(o.out, "Created thread, ID: %s\n", thread.ID)

	msg, err := o.agents.CreateMessage(ctx, thread.ID, domain.MessageRoleUser, query)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(o.out, "Created message, ID: %s\n", msg.ID)

	fmt.Fprintln(o.out, "Start processing the message... this may take a few minutes to finish. Be patient!")
	run, err := o.agents.CreateRun(ctx, thread.ID, agentID)
	if err != nil {
		return nil, err
	}

	o.journalRefs(ctx, "", thread.ID, run.ID)
	o.recordEvent(ctx, domain.EventTypeRunStarted, map[string]string{
		"thread_id":  thread.ID,
		"message_id": msg.ID,
		"run_id":     run.ID,
		"status":     string(run.Status),
	})
	return &Conversation{Thread: thread, Message: msg, Run: run}, nil
}
