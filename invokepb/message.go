package invokepb

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldTarget    = "target"
	FieldRequestID = "request_id"
	FieldPayload   = "payload"
)

var ErrMissingTarget = errors.New("invocation target is missing")

// Request is the decoded form of an Invoke request.
type Request struct {
	Target    string
	RequestID string
	Payload   map[string]any
}

// NewRequest encodes an invocation.
func NewRequest(target, requestID string, payload map[string]any) (*structpb.Struct, error) {
	if target == "" {
		return nil, ErrMissingTarget
	}

	body, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{
		FieldTarget:    target,
		FieldRequestID: requestID,
		FieldPayload:   body,
	})
}

func ParseRequest(in *structpb.Struct) (Request, error) {
	if in == nil {
		return Request{}, ErrMissingTarget
	}

	fields := in.AsMap()

	target, _ := fields[FieldTarget].(string)
	if target == "" {
		return Request{}, ErrMissingTarget
	}

	requestID, _ := fields[FieldRequestID].(string)

	payload, ok := fields[FieldPayload].(map[string]any)
	if !ok && fields[FieldPayload] != nil {
		return Request{}, fmt.Errorf("payload must be an object, got %T", fields[FieldPayload])
	}

	return Request{Target: target, RequestID: requestID, Payload: payload}, nil
}

// NewResponse encodes a function result. A nil payload is sent as null.
func NewResponse(payload map[string]any) (*structpb.Struct, error) {
	if payload == nil {
		return structpb.NewStruct(map[string]any{FieldPayload: nil})
	}

	body, err := Normalize(payload)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{FieldPayload: body})
}

// ParseResponse returns the payload, or nil when the function had no result.
func ParseResponse(out *structpb.Struct) (map[string]any, error) {
	if out == nil {
		return nil, nil
	}

	raw, ok := out.AsMap()[FieldPayload]
	if !ok || raw == nil {
		return nil, nil
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload must be an object, got %T", raw)
	}

	return payload, nil
}

// Normalize converts values structpb cannot hold, such as time.Time or
// decimal amounts, to their JSON form.
func Normalize(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}

	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var out map[string]any
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return out, nil
}
