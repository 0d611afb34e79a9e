package writer

import (
	"context"

	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/models"
)

type WriterClient struct {
	output chan *models.WriteRequest
	done   <-chan struct{}
}

func NewWriterClient(output chan *models.WriteRequest, done <-chan struct{}) *WriterClient {
	return &WriterClient{
		output: output,
		done:   done,
	}
}

func (w *WriterClient) Write(ctx context.Context, sql string, args ...interface{}) error {
	if len(sql) == 0 {
		return apperrors.ErrEmptySQL
	}

	errChan := make(chan error, 1)
	req := models.NewWriteRequest(ctx, errChan, sql, args)

	select {
	case w.output <- req:
	case <-w.done:
		return apperrors.ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errChan:
		return err
	case <-w.done:
		return apperrors.ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
