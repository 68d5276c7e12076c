// Package mockservice is an in-process fake of the remote agent service.
package mockservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// Options configures a Server.
type Options struct {
	// Script drives every run. Defaults to DefaultScript.
	Script ScriptFunc
	// Connections maps connection names to ids. When nil every name resolves.
	Connections map[string]string
	// Token, when set, must be presented as a bearer token.
	Token string
}

// Stats counts the records created through the API.
type Stats struct {
	AgentsCreated  int
	AgentsDeleted  int
	Threads        int
	UserMessages   int
	AgentMessages  int
	Runs           int
	RunPolls       int
	ConnectionGets int
}

type runState struct {
	run   domain.Run
	steps []Step
	next  int
}

// Server implements the agent REST surface in memory.
type Server struct {
	opts Options
	echo *echo.Echo

	mu       sync.Mutex
	agents   map[string]*domain.Agent
	threads  map[string]*domain.Thread
	messages map[string][]domain.Message // thread id -> oldest first
	runs     map[string]*runState
	stats    Stats
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	if opts.Script == nil {
		opts.Script = DefaultScript
	}
	s := &Server{
		opts:     opts,
		agents:   make(map[string]*domain.Agent),
		threads:  make(map[string]*domain.Thread),
		messages: make(map[string][]domain.Message),
		runs:     make(map[string]*runState),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(s.authenticate)
	s.RegisterRoutes(e)
	s.echo = e
	return s
}

// RegisterRoutes registers the agent service routes.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/connections/:name", s.GetConnection)
	e.POST("/assistants", s.CreateAgent)
	e.DELETE("/assistants/:agent_id", s.DeleteAgent)
	e.POST("/threads", s.CreateThread)
	e.POST("/threads/:thread_id/messages", s.CreateMessage)
	e.GET("/threads/:thread_id/messages", s.ListMessages)
	e.POST("/threads/:thread_id/runs", s.CreateRun)
	e.GET("/threads/:thread_id/runs/:run_id", s.GetRun)
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on a loopback port and returns the base URL.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}
	s.echo.Listener = ln
	go func() {
		if err := s.echo.Start(""); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Errorf("mock agent service stopped: %v", err)
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

// Close stops a server started with Start.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// Stats returns a snapshot of the counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// AgentExists reports whether an agent is still registered.
func (s *Server) AgentExists(agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.agents[agentID]
	return ok
}

func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.opts.Token == "" {
			return next(c)
		}
		if c.Request().Header.Get("Authorization") != "Bearer "+s.opts.Token {
			return apiError(c, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
		}
		return next(c)
	}
}

// GetConnection resolves a connection by name.
// GET /connections/:name
func (s *Server) GetConnection(c echo.Context) error {
	name := c.Param("name")

	s.mu.Lock()
	s.stats.ConnectionGets++
	s.mu.Unlock()

	id := "conn_" + name
	if s.opts.Connections != nil {
		var ok bool
		if id, ok = s.opts.Connections[name]; !ok {
			return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("connection %s not found", name))
		}
	}
	return c.JSON(http.StatusOK, domain.Connection{ID: id, Name: name, Type: "bing_grounding"})
}

// CreateAgent creates an agent.
// POST /assistants
func (s *Server) CreateAgent(c echo.Context) error {
	var req domain.CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	if req.Model == "" {
		return apiError(c, http.StatusBadRequest, "invalid_request", "model is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	agent := &domain.Agent{
		ID:           "asst_" + uuid.New().String()[:8],
		Object:       "assistant",
		CreatedAt:    time.Now().Unix(),
		Name:         req.Name,
		Model:        req.Model,
		Instructions: req.Instructions,
		Tools:        req.Tools,
	}
	s.agents[agent.ID] = agent
	s.stats.AgentsCreated++
	return c.JSON(http.StatusOK, agent)
}

// DeleteAgent deletes an agent.
// DELETE /assistants/:agent_id
func (s *Server) DeleteAgent(c echo.Context) error {
	agentID := c.Param("agent_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agentID]; !ok {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("agent %s not found", agentID))
	}
	delete(s.agents, agentID)
	s.stats.AgentsDeleted++
	return c.JSON(http.StatusOK, domain.DeletionStatus{ID: agentID, Object: "assistant.deleted", Deleted: true})
}

// CreateThread creates a thread.
// POST /threads
func (s *Server) CreateThread(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := &domain.Thread{
		ID:        "thread_" + uuid.New().String()[:8],
		Object:    "thread",
		CreatedAt: time.Now().Unix(),
	}
	s.threads[thread.ID] = thread
	s.stats.Threads++
	return c.JSON(http.StatusOK, thread)
}

// CreateMessage posts a user message.
// POST /threads/:thread_id/messages
func (s *Server) CreateMessage(c echo.Context) error {
	threadID := c.Param("thread_id")
	var req domain.CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}
	if req.Role != domain.MessageRoleUser {
		return apiError(c, http.StatusBadRequest, "invalid_request", "only user messages can be created")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("thread %s not found", threadID))
	}
	msg := s.appendMessageLocked(threadID, "", "", domain.MessageRoleUser, buildContent([]string{req.Content}, nil))
	s.stats.UserMessages++
	return c.JSON(http.StatusOK, msg)
}

// ListMessages lists thread messages.
// GET /threads/:thread_id/messages?order=desc&limit=20&after=msg_x
func (s *Server) ListMessages(c echo.Context) error {
	threadID := c.Param("thread_id")
	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	after := c.QueryParam("after")
	desc := c.QueryParam("order") != "asc"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("thread %s not found", threadID))
	}

	all := append([]domain.Message(nil), s.messages[threadID]...)
	if desc {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	start := 0
	if after != "" {
		for i := range all {
			if all[i].ID == after {
				start = i + 1
				break
			}
		}
	}
	page := all[start:]
	hasMore := false
	if len(page) > limit {
		page = page[:limit]
		hasMore = true
	}

	list := domain.MessageList{Object: "list", Data: page, HasMore: hasMore}
	if len(page) > 0 {
		list.FirstID = page[0].ID
		list.LastID = page[len(page)-1].ID
	}
	return c.JSON(http.StatusOK, list)
}

// CreateRun starts a scripted run.
// POST /threads/:thread_id/runs
func (s *Server) CreateRun(c echo.Context) error {
	threadID := c.Param("thread_id")
	var req domain.CreateRunRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[threadID]; !ok {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("thread %s not found", threadID))
	}
	if _, ok := s.agents[req.AgentID]; !ok {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("agent %s not found", req.AgentID))
	}

	state := &runState{
		run: domain.Run{
			ID:        "run_" + uuid.New().String()[:8],
			Object:    "thread.run",
			ThreadID:  threadID,
			AgentID:   req.AgentID,
			Status:    domain.RunStatusQueued,
			CreatedAt: time.Now().Unix(),
		},
		steps: s.opts.Script(s.lastUserQueryLocked(threadID)),
	}
	s.runs[state.run.ID] = state
	s.stats.Runs++
	return c.JSON(http.StatusOK, state.run)
}

// GetRun returns the run, advancing its script by one step.
// GET /threads/:thread_id/runs/:run_id
func (s *Server) GetRun(c echo.Context) error {
	threadID := c.Param("thread_id")
	runID := c.Param("run_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.runs[runID]
	if !ok || state.run.ThreadID != threadID {
		return apiError(c, http.StatusNotFound, "not_found", fmt.Sprintf("run %s not found", runID))
	}
	s.stats.RunPolls++

	if state.run.Status.IsPending() && state.next < len(state.steps) {
		step := state.steps[state.next]
		state.next++
		state.run.Status = step.Status
		state.run.LastError = step.LastError
		if len(step.Segments) > 0 {
			s.appendMessageLocked(threadID, runID, state.run.AgentID, domain.MessageRoleAgent,
				buildContent(step.Segments, step.Citations))
			s.stats.AgentMessages++
		}
		now := time.Now().Unix()
		switch step.Status {
		case domain.RunStatusCompleted:
			state.run.CompletedAt = now
		case domain.RunStatusFailed:
			state.run.FailedAt = now
		}
	}
	return c.JSON(http.StatusOK, state.run)
}

func (s *Server) appendMessageLocked(threadID, runID, agentID string, role domain.MessageRole, content []domain.MessageContent) domain.Message {
	msg := domain.Message{
		ID:        "msg_" + uuid.New().String()[:8],
		Object:    "thread.message",
		CreatedAt: time.Now().Unix(),
		ThreadID:  threadID,
		RunID:     runID,
		AgentID:   agentID,
		Role:      role,
		Content:   content,
	}
	s.messages[threadID] = append(s.messages[threadID], msg)
	return msg
}

func (s *Server) lastUserQueryLocked(threadID string) string {
	msgs := s.messages[threadID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.MessageRoleUser {
			return strings.Join(msgs[i].TextSegments(), "\n")
		}
	}
	return ""
}

func apiError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
