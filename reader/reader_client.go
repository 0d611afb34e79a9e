package reader

import (
	"context"

	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/models"
)

type ReaderClient struct {
	output chan *models.ReadRequest
	done   <-chan struct{}
}

// NewReaderClient sends requests to output until done is closed.
func NewReaderClient(output chan *models.ReadRequest, done <-chan struct{}) *ReaderClient {
	return &ReaderClient{
		output: output,
		done:   done,
	}
}

func (r *ReaderClient) Read(ctx context.Context, sql string, args ...any) (models.Rows, error) {
	if len(sql) == 0 {
		return nil, apperrors.ErrEmptySQL
	}

	resp := make(chan *models.ReadResponse, 1)
	req := models.NewReadRequest(ctx, sql, args, resp)

	select {
	case r.output <- req:
	case <-r.done:
		return nil, apperrors.ErrStoreClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-resp:
		if result == nil {
			return nil, apperrors.ErrNilResponse
		}
		return result.Values, result.Error
	case <-r.done:
		return nil, apperrors.ErrStoreClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
