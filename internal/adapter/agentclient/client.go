// Package agentclient provides an HTTP client for the remote agent service.
package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/adapter/credential"
	"github.com/xiaot623/gogo/research/internal/domain"
)

// messagePageSize is the page size used when scanning thread messages.
const messagePageSize = 20

// ErrorResponse is the error envelope returned by the service.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("agent service returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("agent service returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client is a scoped handle to the agent service. Close releases it.
type Client struct {
	baseURL    string
	apiVersion string
	tokens     credential.Provider
	httpClient *http.Client
	logger     *zap.Logger
	onClose    []func() error
}

// NewClient creates a client for the project endpoint.
// Calls block until the service answers; cancellation comes from ctx only.
func NewClient(endpoint, apiVersion string, tokens credential.Provider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(endpoint, "/"),
		apiVersion: apiVersion,
		tokens:     tokens,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Close releases idle connections and anything the client was started with.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	var firstErr error
	for i := len(c.onClose) - 1; i >= 0; i-- {
		if err := c.onClose[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.onClose = nil
	return firstErr
}

// GetConnection resolves a project connection by name.
func (c *Client) GetConnection(ctx context.Context, name string) (*domain.Connection, error) {
	var conn domain.Connection
	if err := c.do(ctx, http.MethodGet, "/connections/"+url.PathEscape(name), nil, nil, &conn); err != nil {
		return nil, fmt.Errorf("failed to get connection %q: %w", name, err)
	}
	return &conn, nil
}

// CreateAgent creates an agent.
func (c *Client) CreateAgent(ctx context.Context, req domain.CreateAgentRequest) (*domain.Agent, error) {
	var agent domain.Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", nil, req, &agent); err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return &agent, nil
}

// DeleteAgent deletes an agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	var status domain.DeletionStatus
	if err := c.do(ctx, http.MethodDelete, "/assistants/"+url.PathEscape(agentID), nil, nil, &status); err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", agentID, err)
	}
	if !status.Deleted {
		return fmt.Errorf("agent %s was not deleted", agentID)
	}
	return nil
}

// CreateThread creates an empty thread.
func (c *Client) CreateThread(ctx context.Context) (*domain.Thread, error) {
	var thread domain.Thread
	if err := c.do(ctx, http.MethodPost, "/threads", nil, struct{}{}, &thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &thread, nil
}

// CreateMessage posts a message to a thread.
func (c *Client) CreateMessage(ctx context.Context, threadID string, role domain.MessageRole, content string) (*domain.Message, error) {
	req := domain.CreateMessageRequest{Role: role, Content: content}
	var msg domain.Message
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", nil, req, &msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &msg, nil
}

// CreateRun starts a run of agentID on threadID.
func (c *Client) CreateRun(ctx context.Context, threadID, agentID string) (*domain.Run, error) {
	req := domain.CreateRunRequest{AgentID: agentID}
	var run domain.Run
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", nil, req, &run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return &run, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*domain.Run, error) {
	var run domain.Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &run); err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &run, nil
}

// GetLastMessageByRole returns the newest message authored by role,
// or nil when the thread has none.
func (c *Client) GetLastMessageByRole(ctx context.Context, threadID string, role domain.MessageRole) (*domain.Message, error) {
	after := ""
	for {
		page, err := c.listMessages(ctx, threadID, after)
		if err != nil {
			return nil, err
		}
		for i := range page.Data {
			if page.Data[i].Role == role {
				return &page.Data[i], nil
			}
		}
		if !page.HasMore || page.LastID == "" || page.LastID == after {
			return nil, nil
		}
		after = page.LastID
	}
}

func (c *Client) listMessages(ctx context.Context, threadID, after string) (*domain.MessageList, error) {
	query := url.Values{}
	query.Set("order", "desc")
	query.Set("limit", strconv.Itoa(messagePageSize))
	if after != "" {
		query.Set("after", after)
	}

	var list domain.MessageList
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages", query, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return &list, nil
}

// do sends one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiVersion != "" {
		query.Set("api-version", c.apiVersion)
	}
	reqURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.setHeaders(ctx, httpReq, in != nil); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call agent service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("agent service call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) error {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func parseAPIError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		errResp.Error.StatusCode = status
		return errResp.Error
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
