package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// fakeAgents is a scripted in-memory AgentService.
type fakeAgents struct {
	statuses  []domain.RunStatus // returned by successive GetRun calls, last one repeats
	lastError *domain.RunError
	messages  []*domain.Message // returned by successive GetLastMessageByRole calls, last one repeats

	createAgentErr error
	getRunErr      error
	deleteErr      error
	messageErr     error // returned from the messageErrFrom-th GetLastMessageByRole call on
	messageErrFrom int
	onGetRun       func(call int)

	connectionName string
	agentReq       domain.CreateAgentRequest
	userMessages   []string

	agentsCreated int
	agentsDeleted int
	threads       int
	runs          int
	runCalls      int
	messageCalls  int
}

var _ AgentService = (*fakeAgents)(nil)

func (f *fakeAgents) GetConnection(ctx context.Context, name string) (*domain.Connection, error) {
	f.connectionName = name
	return &domain.Connection{ID: "conn-" + name, Name: name}, nil
}

func (f *fakeAgents) CreateAgent(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	if f.createAgentErr != nil {
		return nil, f.createAgentErr
	}
	f.agentsCreated++
	f.agentReq = req
	return &domain.Agent{ID: fmt.Sprintf("asst_%d", f.agentsCreated), Name: req.Name, Model: req.Model}, nil
}

func (f *fakeAgents) DeleteAgent(ctx context.Context, agentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.agentsDeleted++
	return nil
}

func (f *fakeAgents) CreateThread(ctx context.Context) (*domain.Thread, error) {
	f.threads++
	return &domain.Thread{ID: fmt.Sprintf("thread_%d", f.threads)}, nil
}

func (f *fakeAgents) CreateMessage(ctx context.Context, threadID string, role domain.MessageRole, content string) (*domain.Message, error) {
	f.userMessages = append(f.userMessages, content)
	return &domain.Message{ID: fmt.Sprintf("msg_user_%d", len(f.userMessages)), ThreadID: threadID, Role: role}, nil
}

func (f *fakeAgents) CreateRun(ctx context.Context, threadID, agentID string) (*domain.Run, error) {
	f.runs++
	return &domain.Run{ID: fmt.Sprintf("run_%d", f.runs), ThreadID: threadID, AgentID: agentID, Status: domain.RunStatusQueued}, nil
}

func (f *fakeAgents) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	call := f.runCalls
	f.runCalls++
	if f.onGetRun != nil {
		f.onGetRun(call)
	}
	if f.getRunErr != nil {
		return nil, f.getRunErr
	}
	status := domain.RunStatusInProgress
	if len(f.statuses) > 0 {
		status = f.statuses[min(call, len(f.statuses)-1)]
	}
	run := &domain.Run{ID: runID, ThreadID: threadID, Status: status}
	if status == domain.RunStatusFailed {
		run.LastError = f.lastError
	}
	return run, nil
}

func (f *fakeAgents) GetLastMessageByRole(ctx context.Context, threadID string, role domain.MessageRole) (*domain.Message, error) {
	call := f.messageCalls
	f.messageCalls++
	if f.messageErr != nil && call >= f.messageErrFrom {
		return nil, f.messageErr
	}
	if len(f.messages) == 0 {
		return nil, nil
	}
	return f.messages[min(call, len(f.messages)-1)], nil
}

// agentMessage builds an agent message whose first text block carries the citations.
func agentMessage(id string, segments []string, citations ...domain.URLCitation) *domain.Message {
	msg := &domain.Message{ID: id, Role: domain.MessageRoleAgent}
	for i, seg := range segments {
		text := &domain.TextContent{Value: seg}
		if i == 0 {
			for j := range citations {
				c := citations[j]
				text.Annotations = append(text.Annotations, domain.Annotation{Type: domain.AnnotationTypeURLCitation, URLCitation: &c})
			}
		}
		msg.Content = append(msg.Content, domain.MessageContent{Type: domain.ContentTypeText, Text: text})
	}
	return msg
}
