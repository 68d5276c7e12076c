package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/research/internal/domain"
)

// ProvisionAgent resolves the search connection and creates an agent with the
// deep research tool bound to it.
func (o *Orchestrator) ProvisionAgent(ctx context.Context) (*domain.Agent, error) {
	conn, err := o.agents.GetConnection(ctx, o.config.BingResourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve search connection: %w", err)
	}
	o.logger.Debug("resolved search connection",
		zap.String("name", o.config.BingResourceName),
		zap.String("connection_id", conn.ID))

	tool := domain.NewDeepResearchTool(conn.ID, o.config.DeepResearchModel)
	agent, err := o.agents.CreateAgent(ctx, domain.CreateAgentRequest{
		Model:        o.config.ModelDeployment,
		Name:         o.agentName,
		Instructions: o.instructions,
		Tools:        []domain.ToolDefinition{tool},
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(o.out, "Created agent, ID: %s\n", agent.ID)

	o.journalRefs(ctx, agent.ID, "", "")
	o.recordEvent(ctx, domain.EventTypeAgentCreated, map[string]string{
		"agent_id":      agent.ID,
		"connection_id": conn.ID,
		"model":         o.config.ModelDeployment,
	})
	return agent, nil
}
