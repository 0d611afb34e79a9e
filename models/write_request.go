package models

import "context"

type WriteRequest struct {
	Ctx   context.Context
	Error chan error
	Sql   string
	Args  []any
}

func NewWriteRequest(ctx context.Context, err chan error, sql string, args []any) *WriteRequest {
	return &WriteRequest{
		Ctx:   ctx,
		Error: err,
		Sql:   sql,
		Args:  args,
	}
}
