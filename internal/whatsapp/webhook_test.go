package whatsapp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestProcessorLogsInboundMessages(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewProcessor(zap.New(core), nil)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{"from": "919900112233", "id": "wamid.in1", "type": "text"}],
					"statuses": [{"id": "wamid.out1", "status": "delivered", "recipient_id": "919900112233"}]
				}
			}]
		}]
	}`), &payload))

	p.Process(context.Background(), payload)

	require.Equal(t, 1, logs.FilterMessage("whatsapp message received").Len())
	require.Equal(t, 1, logs.FilterMessage("whatsapp status update").Len())
}

func TestProcessorToleratesMalformedPayload(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := NewProcessor(zap.New(core), nil)

	p.Process(context.Background(), map[string]any{"object": "whatsapp_business_account"})

	require.Equal(t, 1, logs.FilterMessage("whatsapp webhook payload fault").Len())
}
