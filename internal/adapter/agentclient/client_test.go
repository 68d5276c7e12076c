package agentclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/adapter/credential"
	"github.com/xiaot623/gogo/research/internal/config"
	"github.com/xiaot623/gogo/research/internal/domain"
	"github.com/xiaot623/gogo/research/internal/mockservice"
)

func TestClientSendsVersionAuthAndBody(t *testing.T) {
	var gotReq domain.CreateAgentRequest
	var gotHeaders http.Header
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/p/assistants" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotHeaders = r.Header.Clone()
		gotQuery = r.URL.RawQuery
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"asst_1","name":"my-agent","model":"gpt-4o"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api/projects/p/", "v1", credential.Static("tok"), nil)
	defer client.Close()

	agent, err := client.CreateAgent(context.Background(), domain.CreateAgentRequest{
		Model: "gpt-4o",
		Name:  "my-agent",
		Tools: []domain.ToolDefinition{domain.NewDeepResearchTool("conn", "o3")},
	})
	require.NoError(t, err)
	assert.Equal(t, "asst_1", agent.ID)
	assert.Equal(t, "Bearer tok", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "api-version=v1", gotQuery)
	require.Len(t, gotReq.Tools, 1)
	assert.Equal(t, "conn", gotReq.Tools[0].DeepResearch.Connections[0].ConnectionID)
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":"rate_limited","message":"slow down"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "v1", credential.Static("tok"), nil)
	_, err := client.CreateThread(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "rate_limited", apiErr.Code)
}

func TestClientPlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", nil, nil)
	_, err := client.GetRun(context.Background(), "t1", "r1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClientTokenFailureStopsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "v1", credential.Static(""), nil)
	_, err := client.CreateThread(context.Background())
	assert.Error(t, err)
	assert.False(t, called)
}

func TestGetLastMessageByRolePages(t *testing.T) {
	srv := mockservice.New(mockservice.Options{})
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	ctx := context.Background()
	client := NewClient(server.URL, "v1", nil, nil)

	thread, err := client.CreateThread(ctx)
	require.NoError(t, err)

	got, err := client.GetLastMessageByRole(ctx, thread.ID, domain.MessageRoleAgent)
	require.NoError(t, err)
	assert.Nil(t, got)

	// More user messages than one page, agent message absent.
	for i := 0; i < messagePageSize+5; i++ {
		_, err := client.CreateMessage(ctx, thread.ID, domain.MessageRoleUser, fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}
	got, err = client.GetLastMessageByRole(ctx, thread.ID, domain.MessageRoleAgent)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = client.GetLastMessageByRole(ctx, thread.ID, domain.MessageRoleUser)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{fmt.Sprintf("q%d", messagePageSize+4)}, got.TextSegments())
}

func TestClientAgainstMockService(t *testing.T) {
	srv := mockservice.New(mockservice.Options{Token: "tok"})
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := NewClient(server.URL, "v1", credential.Static("tok"), nil)

	conn, err := client.GetConnection(ctx, "bing")
	require.NoError(t, err)
	assert.Equal(t, "conn_bing", conn.ID)

	agent, err := client.CreateAgent(ctx, domain.CreateAgentRequest{Model: "gpt-4o", Name: "my-agent"})
	require.NoError(t, err)
	thread, err := client.CreateThread(ctx)
	require.NoError(t, err)
	_, err = client.CreateMessage(ctx, thread.ID, domain.MessageRoleUser, "rates")
	require.NoError(t, err)
	run, err := client.CreateRun(ctx, thread.ID, agent.ID)
	require.NoError(t, err)

	for run.Status.IsPending() {
		run, err = client.GetRun(ctx, thread.ID, run.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.RunStatusCompleted, run.Status)

	last, err := client.GetLastMessageByRole(ctx, thread.ID, domain.MessageRoleAgent)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Len(t, last.TextSegments(), 2)

	require.NoError(t, client.DeleteAgent(ctx, agent.ID))
	assert.Error(t, client.DeleteAgent(ctx, agent.ID))
}

func TestNewMockModeStartsAndStopsService(t *testing.T) {
	cfg := &config.Config{Mode: config.ModeMock, APIVersion: "v1"}
	client, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	thread, err := client.CreateThread(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, thread.ID)

	require.NoError(t, client.Close())
	_, err = client.CreateThread(context.Background())
	assert.Error(t, err)
}
