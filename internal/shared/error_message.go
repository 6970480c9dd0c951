package shared

import "encoding/json"

// ErrorMessage is the conventional JSON error body: {"error": "..."}.
type ErrorMessage struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// ParseErrorMessage extracts the message from a JSON error body.
// It returns false if body is not such a document.
func ParseErrorMessage(body []byte) (*ErrorMessage, bool) {
	var msg ErrorMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.Error == "" {
		return nil, false
	}
	return &msg, true
}
