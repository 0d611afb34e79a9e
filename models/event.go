package models

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var ErrInvalidBody = errors.New("event body must be a JSON object")

// Event is the invocation envelope handed to the handler. Context is passed
// through untouched.
type Event struct {
	Body    map[string]interface{} `json:"body"`
	Context interface{}            `json:"context,omitempty"`
}

type rawEvent struct {
	Body    interface{} `json:"body"`
	Context interface{} `json:"context,omitempty"`
}

// DecodeEvent parses a lambda-style envelope whose body is either a JSON
// object or a string holding one.
func DecodeEvent(data []byte) (Event, error) {
	var raw rawEvent
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("failed decode event: %w", err)
	}

	body, err := decodeBody(raw.Body)
	if err != nil {
		return Event{}, err
	}

	return Event{Body: body, Context: raw.Context}, nil
}

// DecodeBody parses a bare JSON object into an event body.
func DecodeBody(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return map[string]interface{}{}, nil
	}

	var body interface{}
	if err := sonic.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed decode body: %w", err)
	}

	return decodeBody(body)
}

func decodeBody(body interface{}) (map[string]interface{}, error) {
	switch v := body.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case string:
		if v == "" {
			return map[string]interface{}{}, nil
		}
		return DecodeBody([]byte(v))
	default:
		return nil, ErrInvalidBody
	}
}
