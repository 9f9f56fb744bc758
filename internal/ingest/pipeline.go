// Package ingest runs the producer/consumer pipeline: a producer goroutine
// streams sequential heights into a bounded channel; a consumer goroutine
// drains it into the persistence engine, coordinating shutdown on the
// first failure.
package ingest

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"namadexer/internal/chain"
	"namadexer/internal/rpc"
	"namadexer/internal/schema"
)

// channelCapacity is the bounded FIFO capacity between producer and
// consumer; the producer blocks on send once it is full, which is the
// pipeline's only backpressure mechanism.
const channelCapacity = 100

// blockFetcher is satisfied by *rpc.Client.
type blockFetcher interface {
	GetBlock(ctx context.Context, h int64) *rpc.FetchedBlock
	GetLatestBlock(ctx context.Context) (*chain.Block, error)
}

// blockSaver is satisfied by *store.Engine.
type blockSaver interface {
	SaveBlock(ctx context.Context, fetched *rpc.FetchedBlock) error
	MaxHeaderHeight(ctx context.Context) (uint32, error)
}

// Pipeline wires one chain's RPC client, persistence engine, and schema
// connection into a single producer/consumer run.
type Pipeline struct {
	Client      blockFetcher
	Engine      blockSaver
	SchemaConn  schema.Conn
	SchemaName  string
	CreateIndex bool
	Log         *logrus.Entry
}

// Run blocks until the consumer either exhausts its work (never, absent a
// shutdown signal from the caller's ctx) or fails. A consumer failure is
// the returned error; a producer error is never returned, since the
// producer itself never returns one.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.Log.WithField("run_id", runID)

	startHeight, err := p.Engine.MaxHeaderHeight(ctx)
	if err != nil {
		return err
	}
	nextHeight := startHeight + 1

	latest, err := p.Client.GetLatestBlock(ctx)
	if err != nil {
		return err
	}
	targetHeight := latest.HeaderHeight

	indexesExist, err := schema.IndexesExist(ctx, p.SchemaConn, p.SchemaName)
	if err != nil {
		return err
	}

	log.WithField("next_height", nextHeight).
		WithField("target_height", targetHeight).
		WithField("indexes_exist", indexesExist).
		Info("ingestion pipeline starting")

	ch := make(chan *rpc.FetchedBlock, channelCapacity)
	var shutdown atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p.produce(gctx, ch, nextHeight, &shutdown)
		return nil
	})
	g.Go(func() error {
		err := p.consume(gctx, ch, targetHeight, indexesExist, &shutdown, log)
		if err != nil {
			log.WithError(err).Error("consumer stopped on persistence failure")
		}
		return err
	})
	return g.Wait()
}

// produce fetches blocks for strictly increasing heights starting at
// startHeight and enqueues them, checking shutdown before each send. It
// never returns an error: get_block retries internally until it succeeds.
// The enqueue itself races ctx.Done() so a cancelled consumer unblocks a
// producer parked on a full channel instead of leaving it stuck forever.
func (p *Pipeline) produce(ctx context.Context, ch chan<- *rpc.FetchedBlock, startHeight uint32, shutdown *atomic.Bool) {
	h := int64(startHeight)
	for {
		fetched := p.Client.GetBlock(ctx, h)
		if shutdown.Load() {
			return
		}
		select {
		case ch <- fetched:
		case <-ctx.Done():
			return
		}
		h++
	}
}

// consume drains ch, persisting each block in order. It sets shutdown and
// returns on the first persistence failure; on success at targetHeight it
// triggers the one-time post-sync index creation.
func (p *Pipeline) consume(
	ctx context.Context,
	ch <-chan *rpc.FetchedBlock,
	targetHeight uint32,
	indexesExist bool,
	shutdown *atomic.Bool,
	log *logrus.Entry,
) error {
	for fetched := range ch {
		if err := p.Engine.SaveBlock(ctx, fetched); err != nil {
			shutdown.Store(true)
			return err
		}

		if !indexesExist && p.CreateIndex && fetched.Block.HeaderHeight == targetHeight {
			log.WithField("height", targetHeight).Info("target height reached, creating post-sync indexes")
			if err := schema.Indexes(ctx, p.SchemaConn, p.SchemaName); err != nil {
				shutdown.Store(true)
				return err
			}
			indexesExist = true
		}

		select {
		case <-ctx.Done():
			shutdown.Store(true)
			return nil
		default:
		}
	}
	return nil
}
