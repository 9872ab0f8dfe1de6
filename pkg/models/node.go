package models

// NodeType identifies the behavior of a workflow node. The set is closed:
// adding a type means adding a constant here and a factory in the registry.
type NodeType string

const (
	// Trigger nodes. They do no work, they exist as graph roots.
	NodeTypeManualTrigger   NodeType = "trigger:manual"
	NodeTypeWebhookTrigger  NodeType = "trigger:webhook"
	NodeTypeScheduleTrigger NodeType = "trigger:schedule"
	NodeTypeInitialTrigger  NodeType = "trigger:initial"

	// HTTP.
	NodeTypeHTTPRequest NodeType = "httprequest"

	// AI chat providers.
	NodeTypeOpenAIChat    NodeType = "openai"
	NodeTypeAnthropicChat NodeType = "anthropic"
	NodeTypeGeminiChat    NodeType = "gemini"

	// Messaging.
	NodeTypeSlackMessage   NodeType = "slack"
	NodeTypeDiscordMessage NodeType = "discord"
	NodeTypeEmailSend      NodeType = "email"

	// Databases.
	NodeTypePostgresQuery NodeType = "postgres"
	NodeTypeMongoQuery    NodeType = "mongodb"

	// Control flow.
	NodeTypeIfCondition NodeType = "if"
	NodeTypeFilter      NodeType = "filter"

	// Utility.
	NodeTypeSetVariable   NodeType = "setvariable"
	NodeTypeMerge         NodeType = "merge"
	NodeTypeJSONTransform NodeType = "jsontransform"
	NodeTypeCodeExecute   NodeType = "code"
	NodeTypeDelay         NodeType = "delay"
)

// AllNodeTypes lists every supported node type, in registry order.
var AllNodeTypes = []NodeType{
	NodeTypeManualTrigger,
	NodeTypeWebhookTrigger,
	NodeTypeScheduleTrigger,
	NodeTypeInitialTrigger,
	NodeTypeHTTPRequest,
	NodeTypeOpenAIChat,
	NodeTypeAnthropicChat,
	NodeTypeGeminiChat,
	NodeTypeSlackMessage,
	NodeTypeDiscordMessage,
	NodeTypeEmailSend,
	NodeTypePostgresQuery,
	NodeTypeMongoQuery,
	NodeTypeIfCondition,
	NodeTypeFilter,
	NodeTypeSetVariable,
	NodeTypeMerge,
	NodeTypeJSONTransform,
	NodeTypeCodeExecute,
	NodeTypeDelay,
}

// IsTrigger reports whether the node type is a trigger (graph root).
func (t NodeType) IsTrigger() bool {
	switch t {
	case NodeTypeManualTrigger, NodeTypeWebhookTrigger, NodeTypeScheduleTrigger, NodeTypeInitialTrigger:
		return true
	default:
		return false
	}
}

// DefaultHandle is the logical output port used when a connection does not
// name one. Control-flow nodes use dedicated handles ("true"/"false").
const DefaultHandle = "main"

// WorkflowNode represents a node instance in a workflow. Config is an open
// bag whose shape is determined by Type; each executor parses and validates
// its own configuration.
type WorkflowNode struct {
	ID        string         `json:"id"   validate:"required"`
	Type      NodeType       `json:"type" validate:"required"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"` // UI-only
	PositionY int            `json:"position_y"` // UI-only
}

// Connection is a directed edge between two nodes. Handles default to "main".
type Connection struct {
	ID           string `json:"id"`
	SourceNode   string `json:"source_node" validate:"required"`
	TargetNode   string `json:"target_node" validate:"required"`
	SourceHandle string `json:"source_handle"`
	TargetHandle string `json:"target_handle"`
}

// FromHandle returns the connection's source handle, defaulting to "main".
func (c *Connection) FromHandle() string {
	if c.SourceHandle == "" {
		return DefaultHandle
	}

	return c.SourceHandle
}
