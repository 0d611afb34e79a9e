package models

import "context"

// Rows are fetched records keyed by column name.
type Rows []map[string]interface{}

type (
	ReadResponse struct {
		Error  error
		Values Rows
	}

	ReadRequest struct {
		Ctx  context.Context
		Resp chan *ReadResponse
		Sql  string
		Args []any
	}
)

func NewReadRequest(ctx context.Context, sql string, args []any, resp chan *ReadResponse) *ReadRequest {
	return &ReadRequest{
		Ctx:  ctx,
		Sql:  sql,
		Args: args,
		Resp: resp,
	}
}
