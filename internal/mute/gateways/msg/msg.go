// Package msg defines the wire protocol shared by the filtering engine, the
// settings surface and the badge surface: newline-delimited JSON messages,
// one message per line.
package msg

import (
	"encoding/json"
	"fmt"
)

// Actions understood across the message boundary.
const (
	ActionCleanupUsers      = "cleanupUsers"
	ActionCleanupKeywords   = "cleanupKeywords"
	ActionCleanupSubreddits = "cleanupSubreddits"
	ActionUpdateBadge       = "updateBadge"
)

// Response status codes. The protocol reuses the two HTTP codes the
// settings surface understands.
const (
	StatusOK         = 200
	StatusBadRequest = 400
)

// Request is one settings-surface request to the engine.
type Request struct {
	Action string `json:"action"`
}

// Response answers one request. On success the list field matching the
// action carries the results (omitted when empty); the subreddit cleanup
// list is named "communities" on the wire.
type Response struct {
	Status      int      `json:"status"`
	Users       []string `json:"users,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Communities []string `json:"communities,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BadgeUpdate carries the hidden-item count to the badge surface.
type BadgeUpdate struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Encode serializes a message and appends the line terminator.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ParseRequest decodes one request line.
func ParseRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("malformed request: %w", err)
	}
	if req.Action == "" {
		return Request{}, fmt.Errorf("request missing action")
	}
	return req, nil
}

// ParseResponse decodes one response line.
func ParseResponse(line []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("malformed response: %w", err)
	}
	return resp, nil
}

// ParseBadgeUpdate decodes one badge update line.
func ParseBadgeUpdate(line []byte) (BadgeUpdate, error) {
	var upd BadgeUpdate
	if err := json.Unmarshal(line, &upd); err != nil {
		return BadgeUpdate{}, fmt.Errorf("malformed badge update: %w", err)
	}
	if upd.Action != ActionUpdateBadge {
		return BadgeUpdate{}, fmt.Errorf("unexpected action %q", upd.Action)
	}
	return upd, nil
}

// OKUsers builds the success response for a user cleanup. An empty result
// omits the list; the status alone signals success.
func OKUsers(users []string) Response {
	return Response{Status: StatusOK, Users: users}
}

// OKKeywords builds the success response for a keyword cleanup.
func OKKeywords(keywords []string) Response {
	return Response{Status: StatusOK, Keywords: keywords}
}

// OKCommunities builds the success response for a subreddit cleanup.
func OKCommunities(communities []string) Response {
	return Response{Status: StatusOK, Communities: communities}
}

// BadRequest builds a failure response.
func BadRequest(reason string) Response {
	return Response{Status: StatusBadRequest, Error: reason}
}
