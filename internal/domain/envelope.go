package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// RawRequest is an unparsed harvest request as consumed from the request
// topic, with enough source coordinates for logging and offset commits.
type RawRequest struct {
	Value     []byte
	Topic     string
	Partition int
	Offset    int64

	// Commit acknowledges the message once it has been fully handled.
	// Nil when the source does not track offsets.
	Commit func(ctx context.Context) error
}

// ParseRequest decodes and validates a raw harvest request.
func ParseRequest(raw RawRequest) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return Request{}, fmt.Errorf("decode harvest request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
