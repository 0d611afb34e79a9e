package writer

import (
	"context"
	"database/sql"
	"time"

	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"go.uber.org/zap"
)

const DefaultTimeout = 20 * time.Second

// Writer executes statements one at a time in arrival order.
type Writer struct {
	db      *sql.DB
	logger  *logger.Logger
	input   chan *models.WriteRequest
	timeout time.Duration
}

func NewWriter(input chan *models.WriteRequest, db *sql.DB, timeout time.Duration, logger *logger.Logger) *Writer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Writer{
		db:      db,
		logger:  logger,
		input:   input,
		timeout: timeout,
	}
}

func (w *Writer) StartDaemon(ctx context.Context) {
	for {
		select {
		case req, ok := <-w.input:
			if !ok {
				return
			}

			req.Error <- w.exec(req)

		case <-ctx.Done():
			w.logger.Info("stopping writer daemon")
			return
		}
	}
}

func (w *Writer) exec(req *models.WriteRequest) error {
	parent := req.Ctx
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	if _, err := w.db.ExecContext(ctx, req.Sql, req.Args...); err != nil {
		w.logger.Error("failed exec sql",
			zap.String("sql", req.Sql),
			zap.Int("args", len(req.Args)),
			zap.Error(err))

		return err
	}

	return nil
}
