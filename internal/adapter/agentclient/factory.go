package agentclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/adapter/credential"
	"github.com/xiaot623/gogo/research/internal/config"
	"github.com/xiaot623/gogo/research/internal/mockservice"
)

// mockToken is the bearer token shared with the in-process fake service.
const mockToken = "mock-token"

// New creates a client based on cfg.Mode. With RESEARCH_MODE=MOCK it starts an
// in-process fake service and points the client at it; Close stops the fake.
// Otherwise the client talks to cfg.ProjectEndpoint with default credentials.
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.IsMock() {
		logger.Info("RESEARCH_MODE=MOCK detected, using in-process agent service")
		srv := mockservice.New(mockservice.Options{Token: mockToken})
		baseURL, err := srv.Start()
		if err != nil {
			return nil, fmt.Errorf("failed to start mock agent service: %w", err)
		}
		client := NewClient(baseURL, cfg.APIVersion, credential.Static(mockToken), logger)
		client.onClose = append(client.onClose, srv.Close)
		return client, nil
	}

	tokens, err := credential.NewAzure()
	if err != nil {
		return nil, err
	}
	return NewClient(cfg.ProjectEndpoint, cfg.APIVersion, tokens, logger), nil
}
