package models

import (
	"time"
)

// Invocation is a fire-and-forget function call carried over the broker.
type Invocation struct {
	Target    string                 `json:"target"`
	Payload   map[string]interface{} `json:"payload"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewInvocation(target string, payload map[string]interface{}, requestID string) *Invocation {
	return &Invocation{
		Timestamp: time.Now(),
		Target:    target,
		Payload:   payload,
		RequestID: requestID,
	}
}
