// Package store is the record store gateway. Reads and writes are queued to
// the reader and writer daemons, which own the database handle.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/osamikoyo/loanflow/config"
	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/osamikoyo/loanflow/reader"
	"github.com/osamikoyo/loanflow/retrier"
	"github.com/osamikoyo/loanflow/writer"
	"go.uber.org/zap"
)

type Store struct {
	db      *sql.DB
	driver  string
	table   string
	dialect querybuilder.Dialect
	logger  *logger.Logger

	reader      *reader.Reader
	writer      *writer.Writer
	readClient  *reader.ReaderClient
	writeClient *writer.WriterClient

	done      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	runOnce   sync.Once
}

// Connect opens the configured database and waits until it answers a ping.
func Connect(ctx context.Context, cfg config.StoreConfig, stage string, logger *logger.Logger) (*Store, error) {
	if _, err := querybuilder.DialectFor(cfg.Driver); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		logger.Error("failed open database",
			zap.String("driver", cfg.Driver),
			zap.Error(err))

		return nil, err
	}

	if cfg.Driver == "sqlite3" || cfg.Driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	_, err = retrier.Connect(ctx, cfg.ConnectAttempts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	})
	if err != nil {
		logger.Error("failed ping database",
			zap.String("driver", cfg.Driver),
			zap.Uint("attempts", cfg.ConnectAttempts),
			zap.Error(err))

		db.Close()

		return nil, err
	}

	return New(db, cfg, stage, logger)
}

// New wraps an open database handle.
func New(db *sql.DB, cfg config.StoreConfig, stage string, logger *logger.Logger) (*Store, error) {
	if stage == "" {
		return nil, apperrors.ErrEmptyStage
	}

	if logger == nil {
		return nil, apperrors.ErrNilLogger
	}

	dialect, err := querybuilder.DialectFor(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownDriver, cfg.Driver)
	}

	queue := cfg.QueueSize
	if queue < 0 {
		queue = 0
	}

	readChan := make(chan *models.ReadRequest, queue)
	writeChan := make(chan *models.WriteRequest, queue)
	done := make(chan struct{})

	log := logger.Named("store")

	return &Store{
		db:          db,
		driver:      cfg.Driver,
		table:       loans.TableName(stage),
		dialect:     dialect,
		logger:      log,
		reader:      reader.NewReader(readChan, db, cfg.ReadTimeout.Duration, log),
		writer:      writer.NewWriter(writeChan, db, cfg.WriteTimeout.Duration, log),
		readClient:  reader.NewReaderClient(readChan, done),
		writeClient: writer.NewWriterClient(writeChan, done),
		done:        done,
	}, nil
}

// Run starts the reader and writer daemons. They stop when ctx ends or the
// store is closed.
func (s *Store) Run(ctx context.Context) {
	s.runOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)

		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			s.reader.StartDaemon(ctx)
		}()
		go func() {
			defer s.wg.Done()
			s.writer.StartDaemon(ctx)
		}()

		go func() {
			<-ctx.Done()
			s.closeOnce.Do(func() { close(s.done) })
		}()

		s.logger.Info("store daemons started",
			zap.String("driver", s.driver),
			zap.String("table", s.table))
	})
}

// Fetch runs a query and returns every row. Driver errors are returned as is.
func (s *Store) Fetch(ctx context.Context, query string, args ...any) (models.Rows, error) {
	start := time.Now()

	rows, err := s.readClient.Read(ctx, query, args...)

	metrics.TrackStoreOperation("fetch", err, time.Since(start).Seconds())

	return rows, err
}

// Commit executes a single statement outside any transaction.
func (s *Store) Commit(ctx context.Context, query string, args ...any) error {
	start := time.Now()

	err := s.writeClient.Write(ctx, query, args...)

	metrics.TrackStoreOperation("commit", err, time.Since(start).Seconds())

	return err
}

func (s *Store) Table() string {
	return s.table
}

func (s *Store) Dialect() querybuilder.Dialect {
	return s.dialect
}

// EnsureSchema creates the loan table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.Commit(ctx, loans.Schema(s.table)); err != nil {
		s.logger.Error("failed ensure schema",
			zap.String("table", s.table),
			zap.Error(err))

		return err
	}

	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops the daemons and closes the database.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
	}

	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	return s.db.Close()
}
