package domain

// Agent is a remote agent record.
type Agent struct {
	ID           string           `json:"id"`
	Object       string           `json:"object,omitempty"`
	CreatedAt    int64            `json:"created_at,omitempty"`
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions,omitempty"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// CreateAgentRequest is the body for creating an agent.
type CreateAgentRequest struct {
	Model        string           `json:"model"`
	Name         string           `json:"name"`
	Instructions string           `json:"instructions,omitempty"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// ToolDefinition is a tool attached to an agent.
type ToolDefinition struct {
	Type         ToolType            `json:"type"`
	DeepResearch *DeepResearchDetail `json:"deep_research,omitempty"`
}

// DeepResearchDetail binds the deep research tool to a model and search connections.
type DeepResearchDetail struct {
	Model       string                 `json:"deep_research_model"`
	Connections []BingGroundingBinding `json:"deep_research_bing_grounding_connections"`
}

// BingGroundingBinding references a search connection by id.
type BingGroundingBinding struct {
	ConnectionID string `json:"connection_id"`
}

// NewDeepResearchTool builds the tool definition for the given connection and model.
func NewDeepResearchTool(connectionID, model string) ToolDefinition {
	return ToolDefinition{
		Type: ToolTypeDeepResearch,
		DeepResearch: &DeepResearchDetail{
			Model:       model,
			Connections: []BingGroundingBinding{{ConnectionID: connectionID}},
		},
	}
}

// Connection is a project connection to an external resource.
type Connection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DeletionStatus is returned when a record is deleted.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	Deleted bool   `json:"deleted"`
}
