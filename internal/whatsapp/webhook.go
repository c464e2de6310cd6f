package whatsapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/clientcare/crm/internal/observability/metrics"
)

// Processor walks inbound webhook payloads and records what the Cloud API
// delivered. Processing faults are logged and counted, never surfaced to
// the caller: the webhook endpoint acknowledges every delivery.
type Processor struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewProcessor(log *zap.Logger, m *metrics.Metrics) *Processor {
	return &Processor{log: log, metrics: m}
}

func (p *Processor) Process(ctx context.Context, payload map[string]any) {
	entries, ok := payload["entry"].([]any)
	if !ok {
		p.fault(ctx, "missing_entry")
		return
	}

	for _, rawEntry := range entries {
		entry, ok := rawEntry.(map[string]any)
		if !ok {
			p.fault(ctx, "malformed_entry")
			continue
		}
		changes, ok := entry["changes"].([]any)
		if !ok {
			continue
		}
		for _, rawChange := range changes {
			change, ok := rawChange.(map[string]any)
			if !ok {
				p.fault(ctx, "malformed_change")
				continue
			}
			value, ok := change["value"].(map[string]any)
			if !ok {
				continue
			}
			p.processValue(ctx, value)
		}
	}
}

func (p *Processor) processValue(ctx context.Context, value map[string]any) {
	if messages, ok := value["messages"].([]any); ok {
		for _, rawMessage := range messages {
			message, ok := rawMessage.(map[string]any)
			if !ok {
				p.fault(ctx, "malformed_message")
				continue
			}
			p.log.Info("whatsapp message received",
				zap.String("from", stringField(message, "from")),
				zap.String("message_id", stringField(message, "id")),
				zap.String("message_type", stringField(message, "type")),
			)
			if p.metrics != nil {
				p.metrics.RecordWebhookEvent(ctx, "message")
			}
		}
	}

	if statuses, ok := value["statuses"].([]any); ok {
		for _, rawStatus := range statuses {
			status, ok := rawStatus.(map[string]any)
			if !ok {
				p.fault(ctx, "malformed_status")
				continue
			}
			p.log.Info("whatsapp status update",
				zap.String("message_id", stringField(status, "id")),
				zap.String("status", stringField(status, "status")),
				zap.String("recipient", stringField(status, "recipient_id")),
			)
			if p.metrics != nil {
				p.metrics.RecordWebhookEvent(ctx, "status")
			}
		}
	}
}

func (p *Processor) fault(ctx context.Context, reason string) {
	p.log.Warn("whatsapp webhook payload fault", zap.String("reason", reason))
	if p.metrics != nil {
		p.metrics.RecordWebhookFailure(ctx, reason)
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
