package registry

import (
	"github.com/braid-run/braid/pkg/nodes/aichat"
	"github.com/braid-run/braid/pkg/nodes/code"
	"github.com/braid-run/braid/pkg/nodes/condition"
	"github.com/braid-run/braid/pkg/nodes/database"
	"github.com/braid-run/braid/pkg/nodes/delay"
	"github.com/braid-run/braid/pkg/nodes/httprequest"
	"github.com/braid-run/braid/pkg/nodes/jsonops"
	"github.com/braid-run/braid/pkg/nodes/merge"
	"github.com/braid-run/braid/pkg/nodes/messaging"
	"github.com/braid-run/braid/pkg/nodes/trigger"
	"github.com/braid-run/braid/pkg/nodes/variable"
)

// RegisterDefaultExecutors installs the factory for every built-in node type.
func RegisterDefaultExecutors(r *Registry) {
	r.Register(trigger.NewManualTriggerFactory())
	r.Register(trigger.NewWebhookTriggerFactory())
	r.Register(trigger.NewScheduleTriggerFactory())
	r.Register(trigger.NewInitialTriggerFactory())

	r.Register(httprequest.NewFactory())

	r.Register(aichat.NewOpenAIFactory())
	r.Register(aichat.NewAnthropicFactory())
	r.Register(aichat.NewGeminiFactory())

	r.Register(messaging.NewSlackFactory())
	r.Register(messaging.NewDiscordFactory())
	r.Register(messaging.NewEmailFactory())

	r.Register(database.NewPostgresFactory())
	r.Register(database.NewMongoFactory())

	r.Register(condition.NewIfFactory())
	r.Register(condition.NewFilterFactory())

	r.Register(variable.NewFactory())
	r.Register(merge.NewFactory())
	r.Register(jsonops.NewFactory())
	r.Register(code.NewFactory())
	r.Register(delay.NewFactory())
}
