package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"namadexer/internal/chain"
	"namadexer/internal/rpc"
)

type fakeFetcher struct {
	latest *chain.Block
}

func (f *fakeFetcher) GetBlock(ctx context.Context, h int64) *rpc.FetchedBlock {
	return &rpc.FetchedBlock{Block: &chain.Block{HeaderHeight: uint32(h)}}
}

func (f *fakeFetcher) GetLatestBlock(ctx context.Context) (*chain.Block, error) {
	return f.latest, nil
}

type fakeSaver struct {
	startHeight uint32
	failAt      uint32
	saved       chan uint32
}

func (s *fakeSaver) MaxHeaderHeight(ctx context.Context) (uint32, error) {
	return s.startHeight, nil
}

func (s *fakeSaver) SaveBlock(ctx context.Context, fetched *rpc.FetchedBlock) error {
	if s.failAt != 0 && fetched.Block.HeaderHeight == s.failAt {
		return errors.New("simulated persistence failure")
	}
	s.saved <- fetched.Block.HeaderHeight
	return nil
}

type fakeConn struct{}

func (fakeConn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (fakeConn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return pgxRowStub{}
}

// pgxRowStub satisfies the single method schema.IndexesExist needs from a
// pgx.Row; every test in this package only probes a missing index.
type pgxRowStub struct{}

func (pgxRowStub) Scan(dest ...interface{}) error {
	if len(dest) > 0 {
		if p, ok := dest[0].(*int); ok {
			*p = 0
		}
	}
	return nil
}

func TestPipelineStopsOnPersistenceFailure(t *testing.T) {
	saver := &fakeSaver{startHeight: 0, failAt: 3, saved: make(chan uint32, 10)}
	p := &Pipeline{
		Client:      &fakeFetcher{latest: &chain.Block{HeaderHeight: 100}},
		Engine:      saver,
		SchemaConn:  fakeConn{},
		SchemaName:  "test_chain",
		CreateIndex: false,
		Log:         logrus.NewEntry(logrus.New()),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Run(ctx)
	if err == nil {
		t.Fatal("expected error from consumer on simulated failure")
	}
}
