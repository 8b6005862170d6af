package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
)

// slackBody renders event for a Slack incoming webhook.
func slackBody(event *telemetry.Event) ([]byte, error) {
	text := slackText(event)
	return json.Marshal(map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	})
}

func slackText(event *telemetry.Event) string {
	p := event.Payload
	switch event.Name {
	case telemetry.IssueStatusChanged:
		return fmt.Sprintf(":arrow_forward: %v moved from %v to %v", p["issue_id"], p["from"], p["to"])
	case telemetry.SprintCompleted:
		return fmt.Sprintf(":checkered_flag: Sprint %v completed", p["sprint_id"])
	case telemetry.WIPThresholdChanged:
		return fmt.Sprintf(":construction: WIP threshold changed from %v to %v", p["from"], p["to"])
	case PingEvent:
		return ":wave: FlowCraft webhook ping"
	default:
		return fmt.Sprintf("FlowCraft event: %s", event.Name)
	}
}
