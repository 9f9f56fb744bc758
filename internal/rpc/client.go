// Package rpc adapts the upstream Tendermint/CometBFT RPC endpoint to the
// two operations ingestion needs: GetBlock (retries forever) and
// GetLatestBlock (one-shot). It is built directly on
// github.com/cometbft/cometbft's client/http, the same RPC client the
// chain's own full node tooling uses.
package rpc

import (
	"context"
	"strings"
	"time"

	cmthttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/sirupsen/logrus"

	"namadexer/internal/chain"
	nerrors "namadexer/internal/errors"
	"namadexer/internal/metrics"
)

// notReadyWait is the fixed sleep on a not-yet-produced height.
const notReadyWait = 10 * time.Second

// Client retrieves blocks and block results for a single chain. A Client
// is safe for use by exactly one producer goroutine.
type Client struct {
	node    *cmthttp.HTTP
	log     *logrus.Entry
	metrics *metrics.Metrics
}

// New dials addr (e.g. "http://localhost:26657") without blocking; the
// underlying client only performs network I/O on each RPC call.
func New(addr string, log *logrus.Entry, m *metrics.Metrics) (*Client, error) {
	node, err := cmthttp.New(addr, "/websocket")
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindTendermint, "rpc.New", err)
	}
	return &Client{node: node, log: log, metrics: m}, nil
}

// GetBlock retrieves the block and block-results for height h, retrying
// internally until both succeed for the same height. It never returns an
// error to the caller.
func (c *Client) GetBlock(ctx context.Context, h int64) *FetchedBlock {
	for {
		start := time.Now()

		blockResp, err := c.node.Block(ctx, &h)
		if err != nil {
			c.waitAfter(err, h)
			continue
		}

		resultsResp, err := c.node.BlockResults(ctx, &h)
		if err != nil {
			c.waitAfter(err, h)
			continue
		}

		if c.metrics != nil {
			c.metrics.GetBlockDuration.Observe(time.Since(start).Seconds())
			c.metrics.LastGetBlockHeight.Set(float64(h))
		}

		block := convertBlock(blockResp)
		rawTxs := make([][]byte, len(blockResp.Block.Data.Txs))
		for i, tx := range blockResp.Block.Data.Txs {
			rawTxs[i] = append([]byte(nil), tx...)
		}

		evidences := convertEvidences(block.BlockID, blockResp)
		if dropped := len(blockResp.Block.Evidence.Evidence) - len(evidences); dropped > 0 && c.log != nil {
			c.log.WithField("height", h).WithField("dropped", dropped).
				Warn("dropping evidence that is not duplicate-vote")
		}

		return &FetchedBlock{
			Block:            block,
			Results:          resultsResp,
			CommitSignatures: convertCommitSignatures(block.BlockID, blockResp),
			Evidences:        evidences,
			RawTxs:           rawTxs,
		}
	}
}

// FetchedBlock bundles everything the persistence engine needs for one
// height: the block row, its block-results (for return codes), the
// commit signatures and duplicate-vote evidences extracted from the same
// response, and the raw transaction bytes awaiting decode.
type FetchedBlock struct {
	Block            *chain.Block
	Results          *coretypes.ResultBlockResults
	CommitSignatures []chain.CommitSignature
	Evidences        []chain.Evidence
	RawTxs           [][]byte
}

// GetLatestBlock retrieves the chain's current tip. Unlike GetBlock,
// failure propagates to the caller.
func (c *Client) GetLatestBlock(ctx context.Context) (*chain.Block, error) {
	status, err := c.node.Status(ctx)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindTendermintRPC, "rpc.GetLatestBlock", err)
	}
	h := status.SyncInfo.LatestBlockHeight
	blockResp, err := c.node.Block(ctx, &h)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindTendermintRPC, "rpc.GetLatestBlock", err)
	}
	return convertBlock(blockResp), nil
}

// waitAfter classifies err and sleeps only for a not-yet-produced height;
// transport and any other error retry immediately.
func (c *Client) waitAfter(err error, h int64) {
	if isNotYetProduced(err) {
		if c.log != nil {
			c.log.WithField("height", h).Debug("block not yet produced, waiting")
		}
		time.Sleep(notReadyWait)
		return
	}
	if c.log != nil {
		c.log.WithError(err).WithField("height", h).Warn("rpc error, retrying")
	}
}

// isNotYetProduced reports whether err is the node's response-kind error
// for a height beyond its current tip, as opposed to a transport failure.
func isNotYetProduced(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "must be less than or equal to") ||
		strings.Contains(msg, "height") && strings.Contains(msg, "not available") ||
		strings.Contains(msg, "is not available, lowest height is")
}
