// internal/api/schema.go
package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// dispatchRequestSchema validates the dispatch endpoint body before it reaches
// the engine, so caller mistakes surface as 400s rather than skipped channels.
const dispatchRequestSchema = `{
	"type": "object",
	"required": ["recipientId", "kind"],
	"additionalProperties": false,
	"properties": {
		"recipientId": {"type": "string", "minLength": 1},
		"kind": {
			"type": "string",
			"enum": [
				"request_created", "request_accepted", "request_declined",
				"request_completed", "request_reassigned", "request_cancelled",
				"payment_received", "payment_failed", "payout_completed",
				"reminder_pending", "complaint_filed", "admin_alert"
			]
		},
		"data": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"channels": {
			"type": "array",
			"items": {"type": "string", "enum": ["email", "sms", "whatsapp", "in_app"]}
		},
		"emailOverride": {"type": "string"}
	}
}`

var dispatchSchema = gojsonschema.NewStringLoader(dispatchRequestSchema)

// validateDispatchRequest returns a human-readable validation error, or nil.
func validateDispatchRequest(body []byte) error {
	result, err := gojsonschema.Validate(dispatchSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
