package loanservice

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/fetcher"
	"github.com/osamikoyo/loanflow/invokepb"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/querybuilder"
	"github.com/osamikoyo/loanflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeReader struct {
	rows  models.Rows
	err   error
	query string
	args  []any
}

func (f *fakeReader) Fetch(_ context.Context, query string, args ...any) (models.Rows, error) {
	f.query, f.args = query, args
	return f.rows, f.err
}

func (f *fakeReader) Table() string                 { return "loan_dev" }
func (f *fakeReader) Dialect() querybuilder.Dialect { return querybuilder.Question }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("los-dev-b", func(context.Context, map[string]any) (map[string]any, error) { return nil, nil })
	r.Register("los-dev-a", func(context.Context, map[string]any) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})

	assert.Equal(t, []string{"los-dev-a", "los-dev-b"}, r.Targets())

	out, err := r.Call(context.Background(), "los-dev-a", nil)
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])

	_, err = r.Call(context.Background(), "los-dev-c", nil)
	assert.ErrorIs(t, err, ErrUnknownFunction)
}

func TestGetLoanDetails(t *testing.T) {
	reader := &fakeReader{rows: models.Rows{{"loan_id": "l1", "loan_tenure": int64(12)}}}
	fn := GetLoanDetails(reader, logger.New(zaptest.NewLogger(t)))

	out, err := fn(context.Background(), map[string]any{"user_id": "u1", "loan_id": "l1"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM loan_dev WHERE user_id = ? AND loan_id = ?", reader.query)
	assert.Equal(t, []any{"u1", "l1"}, reader.args)
	assert.Equal(t, "u1", out["user_id"])
	assert.Equal(t, "l1", out["loan"].(map[string]interface{})["loan_id"])
}

func TestGetLoanDetailsEdges(t *testing.T) {
	log := logger.New(zaptest.NewLogger(t))

	out, err := GetLoanDetails(&fakeReader{rows: models.Rows{}}, log)(context.Background(), map[string]any{"user_id": "u1", "loan_id": "l1"})
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = GetLoanDetails(&fakeReader{}, log)(context.Background(), map[string]any{"user_id": "u1"})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	driverErr := errors.New("no such table: loan_dev")
	_, err = GetLoanDetails(&fakeReader{err: driverErr}, log)(context.Background(), map[string]any{"user_id": "u1", "loan_id": "l1"})
	assert.ErrorIs(t, err, driverErr)
}

func serve(t *testing.T, registry *Registry) invokepb.InvokerClient {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	invokepb.RegisterInvokerServer(srv, NewServer(registry, logger.New(zaptest.NewLogger(t))))

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return invokepb.NewInvokerClient(conn)
}

func TestServerStatusCodes(t *testing.T) {
	registry := NewRegistry()
	registry.Register("los-dev-broken", func(context.Context, map[string]any) (map[string]any, error) {
		return nil, errors.New("database is locked")
	})

	client := serve(t, registry)
	ctx := context.Background()

	req, err := invokepb.NewRequest("los-dev-missing", "", nil)
	require.NoError(t, err)
	_, err = client.Invoke(ctx, req)
	assert.Equal(t, codes.NotFound, status.Code(err))

	req, err = invokepb.NewRequest("los-dev-broken", "", nil)
	require.NoError(t, err)
	_, err = client.Invoke(ctx, req)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Contains(t, err.Error(), "database is locked")
}

func TestFetcherAgainstSQLiteService(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := logger.New(zaptest.NewLogger(t))

	st, err := store.Connect(ctx, config.StoreConfig{
		Driver:          "sqlite",
		DSN:             ":memory:",
		QueueSize:       1,
		ConnectAttempts: 1,
	}, "dev", log)
	require.NoError(t, err)
	defer st.Close()

	st.Run(ctx)
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.Commit(ctx, "INSERT INTO loan_dev (user_id, loan_id, loan_status) VALUES (?, ?, ?)", "u1", "l1", "Approved"))

	registry := NewRegistry()
	RegisterLoanFunctions(registry, "dev", st, log)

	f := fetcher.New("dev", map[fetcher.Mode]fetcher.Invoker{
		fetcher.RequestResponse: fetcher.NewGRPCInvoker(serve(t, registry), time.Second, log),
	}, nil, log)

	out, err := f.Invoke(ctx, LoanDetailsFunction, map[string]any{"user_id": "u1", "loan_id": "l1"}, fetcher.RequestResponse)
	require.NoError(t, err)
	assert.Equal(t, "Approved", out["loan"].(map[string]any)["loan_status"])

	out, err = f.Invoke(ctx, LoanDetailsFunction, map[string]any{"user_id": "u1", "loan_id": "nope"}, fetcher.RequestResponse)
	require.NoError(t, err)
	assert.Nil(t, out)
}
