// Package stream connects the pipeline to the durable Redis stream: the
// consumer-group read loop on one side and the confirmation channel on the
// other.
package stream

import (
	"fmt"
	"strconv"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/model"
)

// parseEnvelope converts a stream entry's field map into an Envelope.
// Producers write string values only; anything else for a known key is
// treated as absent.
func parseEnvelope(values map[string]any) (model.Envelope, error) {
	env := model.Envelope{
		WID:        stringField(values, "wid"),
		ChatID:     stringField(values, "chat_id"),
		ChatName:   stringField(values, "chat_name"),
		SenderID:   stringField(values, "sender_id"),
		SenderName: stringField(values, "sender_name"),
		Type:       stringField(values, "type"),
		Body:       stringField(values, "body"),
	}

	if env.WID == "" {
		return model.Envelope{}, fmt.Errorf("%w: missing wid", common.ErrInvalidEnvelope)
	}
	if env.Body == "" {
		return model.Envelope{}, fmt.Errorf("%w: missing body", common.ErrInvalidEnvelope)
	}

	ts := stringField(values, "timestamp")
	parsed, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return model.Envelope{}, fmt.Errorf("%w: bad timestamp %q", common.ErrInvalidEnvelope, ts)
	}
	env.Timestamp = parsed

	return env, nil
}

func stringField(values map[string]any, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}
