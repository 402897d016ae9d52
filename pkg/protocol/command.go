// Package protocol defines the wire format spoken by the bridge: one JSON
// document per line in both directions. Requests carry a command type and an
// open argument map; responses are flat JSON objects that either carry
// "success": true plus command-specific fields, or an "error" message.
package protocol

import (
	"encoding/json"
	"errors"
)

// Command is a single decoded client request.
type Command struct {
	Type string         `json:"type"`
	Args map[string]any `json:"args,omitempty"`
}

// ParseCommand decodes one JSON request document. A missing args object
// defaults to an empty map; a missing type field is a decode failure.
func ParseCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}

	if cmd.Type == "" {
		return nil, errors.New("command type required")
	}

	if cmd.Args == nil {
		cmd.Args = map[string]any{}
	}

	return &cmd, nil
}

// Encode serializes a command for the wire.
func (c *Command) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// Response is one flat JSON response document. Success responses carry
// "success": true plus command-specific fields; failures carry "error"
// and optionally "traceback" with extended detail.
type Response map[string]any

// Success builds a success response with the given extra fields.
func Success(fields map[string]any) Response {
	r := Response{"success": true}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

// Failure builds an error response.
func Failure(msg string) Response {
	return Response{"error": msg}
}

// FailureWithDetail builds an error response carrying extended detail.
func FailureWithDetail(msg, detail string) Response {
	return Response{"error": msg, "traceback": detail}
}

// Failed reports whether the response is an error response.
func (r Response) Failed() bool {
	_, ok := r["error"]
	return ok
}

// ErrorMessage returns the error field, or "" for success responses.
func (r Response) ErrorMessage() string {
	if msg, ok := r["error"].(string); ok {
		return msg
	}
	return ""
}

// Encode serializes a response for the wire.
func (r Response) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeResponse parses a response document, for clients.
func DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r, nil
}
