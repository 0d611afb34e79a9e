package reader

import (
	"context"
	"database/sql"
	"time"

	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"go.uber.org/zap"
)

const DefaultTimeout = 15 * time.Second

// Reader serves SELECT queries received on its input channel.
type Reader struct {
	db      *sql.DB
	logger  *logger.Logger
	input   chan *models.ReadRequest
	timeout time.Duration
}

func NewReader(input chan *models.ReadRequest, db *sql.DB, timeout time.Duration, logger *logger.Logger) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Reader{
		input:   input,
		db:      db,
		logger:  logger,
		timeout: timeout,
	}
}

func (r *Reader) StartDaemon(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping reader daemon")
			return
		case req, ok := <-r.input:
			if !ok {
				return
			}

			req.Resp <- r.read(req)
		}
	}
}

func (r *Reader) read(req *models.ReadRequest) *models.ReadResponse {
	parent := req.Ctx
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, req.Sql, req.Args...)
	if err != nil {
		r.logger.Error("failed query sql",
			zap.String("sql", req.Sql),
			zap.Error(err))

		return &models.ReadResponse{Error: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &models.ReadResponse{Error: err}
	}

	results := models.Rows{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return &models.ReadResponse{Error: err}
		}

		entry := make(map[string]interface{}, len(columns))

		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				entry[col] = string(b)
			} else {
				entry[col] = values[i]
			}
		}

		results = append(results, entry)
	}

	if err := rows.Err(); err != nil {
		return &models.ReadResponse{Error: err}
	}

	return &models.ReadResponse{Values: results}
}
