package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Redacted replaces sensitive parameter values.
const Redacted = "[REDACTED]"

// sensitiveKeys are parameter names whose values never reach the store.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"secret":         true,
	"secret_value":   true,
	"token":          true,
	"api_key":        true,
	"authorization":  true,
	"credentials":    true,
	"content_base64": true,
	"code":           true,
}

// NewEvent creates a new audit event for an endpoint.
func NewEvent(endpoint string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Endpoint:  endpoint,
	}
}

// WithRequest adds request identification to the event.
func (e *Event) WithRequest(requestID, sessionID, method string) *Event {
	e.RequestID = requestID
	e.SessionID = sessionID
	e.Method = method
	return e
}

// WithToolkit adds toolkit information to the event.
func (e *Event) WithToolkit(kind string) *Event {
	e.ToolkitKind = kind
	return e
}

// WithTransport records the transport the request arrived on.
func (e *Event) WithTransport(transport string) *Event {
	e.Transport = transport
	return e
}

// WithParameters adds parameters to the event.
func (e *Event) WithParameters(params map[string]any) *Event {
	e.Parameters = params
	return e
}

// WithResult adds result information to the event.
func (e *Event) WithResult(success bool, category, errorMsg string, durationMS int64) *Event {
	e.Success = success
	e.ErrorCategory = category
	e.ErrorMessage = errorMsg
	e.DurationMS = durationMS
	return e
}

// WithResponseSize records the size of the rendered response.
func (e *Event) WithResponseSize(chars int) *Event {
	e.ResponseChars = chars
	return e
}

// SanitizeParameters returns a copy of params with sensitive values redacted.
// Keys match case-insensitively.
func SanitizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		if sensitiveKeys[strings.ToLower(k)] {
			sanitized[k] = Redacted
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}
