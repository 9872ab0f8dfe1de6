package messaging

import (
	"github.com/braid-run/braid/pkg/models"
	"github.com/braid-run/braid/pkg/protocol"
)

type SlackFactory struct{}

func NewSlackFactory() protocol.ExecutorFactory { return &SlackFactory{} }

func (f *SlackFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewSlackExecutor(node, deps)
}

func (f *SlackFactory) Type() models.NodeType { return models.NodeTypeSlackMessage }
func (f *SlackFactory) Name() string          { return "Slack Message" }

func (f *SlackFactory) Description() string {
	return "Posts a message to a Slack channel via chat.postMessage"
}

func (f *SlackFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"credential_id": map[string]any{
				"type":        "string",
				"description": "Credential holding the Slack bot token",
			},
			"channel": map[string]any{
				"type":        "string",
				"description": "Channel ID or name. Supports templating",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {{template}} expressions",
			},
		},
		"required": []string{"credential_id", "channel", "message"},
	}
}

type DiscordFactory struct{}

func NewDiscordFactory() protocol.ExecutorFactory { return &DiscordFactory{} }

func (f *DiscordFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewDiscordExecutor(node, deps)
}

func (f *DiscordFactory) Type() models.NodeType { return models.NodeTypeDiscordMessage }
func (f *DiscordFactory) Name() string          { return "Discord Message" }

func (f *DiscordFactory) Description() string {
	return "Posts a message to Discord via webhook or the bot API"
}

func (f *DiscordFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"webhook_url": map[string]any{
				"type":        "string",
				"description": "Incoming webhook URL. Alternative to credential_id + channel_id",
			},
			"credential_id": map[string]any{
				"type":        "string",
				"description": "Credential holding the Discord bot token",
			},
			"channel_id": map[string]any{
				"type":        "string",
				"description": "Target channel ID when using the bot API",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Message content. Supports {{template}} expressions",
			},
		},
		"required": []string{"message"},
	}
}

type EmailFactory struct{}

func NewEmailFactory() protocol.ExecutorFactory { return &EmailFactory{} }

func (f *EmailFactory) Create(node *models.WorkflowNode, deps protocol.Dependencies) (protocol.Executor, error) {
	return NewEmailExecutor(node, deps)
}

func (f *EmailFactory) Type() models.NodeType { return models.NodeTypeEmailSend }
func (f *EmailFactory) Name() string          { return "Send Email" }

func (f *EmailFactory) Description() string {
	return "Sends an email through the Mailgun messages API"
}

func (f *EmailFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"credential_id": map[string]any{
				"type":        "string",
				"description": "Credential holding the Mailgun API key",
			},
			"domain":  map[string]any{"type": "string"},
			"from":    map[string]any{"type": "string"},
			"to":      map[string]any{"type": "string", "description": "Recipient address. Supports templating"},
			"subject": map[string]any{"type": "string", "description": "Supports templating"},
			"text":    map[string]any{"type": "string", "description": "Plain-text body. Supports templating"},
			"html":    map[string]any{"type": "string", "description": "HTML body. Supports templating"},
		},
		"required": []string{"credential_id", "domain", "from", "to", "subject"},
	}
}
