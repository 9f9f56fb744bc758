// Package api implements the HTTP read API: JSON over HTTP, routed with
// gorilla/mux, CORS via rs/cors, errors mapped to status codes through
// the shared error taxonomy.
package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	nerrors "namadexer/internal/errors"
	"namadexer/internal/readapi"
)

// Controller provides the HTTP handlers for every route the read API exposes.
type Controller struct {
	api *readapi.API
	log *logrus.Entry
}

// NewController builds a Controller over api, logging with log.
func NewController(api *readapi.API, log *logrus.Entry) *Controller {
	return &Controller{api: api, log: log}
}

func (c *Controller) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.log.WithError(err).Warn("failed writing json response")
	}
}

// writeError maps err to a status code via the taxonomy and writes a JSON
// body of the form {"error": "..."}.
func (c *Controller) writeError(w http.ResponseWriter, err error) {
	status := nerrors.ToStatus(nerrors.KindOf(err))
	c.log.WithError(err).WithField("status", status).Warn("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, nerrors.Wrap(nerrors.KindHex, "api.decodeHex", err)
	}
	return b, nil
}

// BlockByHeight handles GET /block/height/:h.
func (c *Controller) BlockByHeight(w http.ResponseWriter, r *http.Request) {
	heightStr := mux.Vars(r)["h"]
	height, err := strconv.ParseInt(heightStr, 10, 32)
	if err != nil {
		c.writeError(w, nerrors.Wrap(nerrors.KindParseInt, "api.BlockByHeight", err))
		return
	}
	row, err := c.api.BlockByHeight(r.Context(), int32(height))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, row)
}

// BlockByHash handles GET /block/hash/:hex.
func (c *Controller) BlockByHash(w http.ResponseWriter, r *http.Request) {
	idBytes, err := decodeHex(mux.Vars(r)["hex"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	row, err := c.api.BlockByID(r.Context(), idBytes)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, row)
}

// LastBlock handles GET /block/last, with optional ?num&offset pagination
// over the block list.
func (c *Controller) LastBlock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("num") == "" {
		row, err := c.api.LastBlock(r.Context())
		if err != nil {
			c.writeError(w, err)
			return
		}
		c.writeJSON(w, row)
		return
	}

	num, err := strconv.ParseInt(q.Get("num"), 10, 32)
	if err != nil {
		c.writeError(w, nerrors.Wrap(nerrors.KindParseInt, "api.LastBlock", err))
		return
	}
	var offset int64
	if q.Get("offset") != "" {
		offset, err = strconv.ParseInt(q.Get("offset"), 10, 32)
		if err != nil {
			c.writeError(w, nerrors.Wrap(nerrors.KindParseInt, "api.LastBlock", err))
			return
		}
	}
	rows, err := c.api.LastBlocks(r.Context(), int32(num), int32(offset))
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, rows)
}

// TxByHash handles GET /tx/:hex.
func (c *Controller) TxByHash(w http.ResponseWriter, r *http.Request) {
	hash, err := decodeHex(mux.Vars(r)["hex"])
	if err != nil {
		c.writeError(w, err)
		return
	}
	row, err := c.api.TxByHash(r.Context(), hash)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, row)
}

// VoteProposal handles GET /tx/vote_proposal/:id.
func (c *Controller) VoteProposal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rows, err := c.api.VoteProposal(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	delegations, err := c.api.VoteProposalDelegations(r.Context(), id)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, map[string]interface{}{"votes": rows, "delegations": delegations})
}

// ShieldedAssets handles GET /tx/shielded.
func (c *Controller) ShieldedAssets(w http.ResponseWriter, r *http.Request) {
	balances, err := c.api.ShieldedAssets(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, balances)
}

// TxsByAddress handles GET /address/:addr.
func (c *Controller) TxsByAddress(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	rows, err := c.api.TxsByAddress(r.Context(), addr)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, rows)
}

// AccountUpdates handles GET /account/updates/:addr.
func (c *Controller) AccountUpdates(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["addr"]
	hist, err := c.api.AccountHistory(r.Context(), addr)
	if err != nil {
		c.writeError(w, err)
		return
	}
	c.writeJSON(w, hist)
}

// ValidatorUptime handles GET /validator/:hex/uptime, with an optional
// ?start&end query range.
func (c *Controller) ValidatorUptime(w http.ResponseWriter, r *http.Request) {
	addr, err := decodeHex(mux.Vars(r)["hex"])
	if err != nil {
		c.writeError(w, err)
		return
	}

	q := r.URL.Query()
	var start, end *int32
	if q.Get("start") != "" && q.Get("end") != "" {
		s, err := strconv.ParseInt(q.Get("start"), 10, 32)
		if err != nil {
			c.writeError(w, nerrors.Wrap(nerrors.KindParseInt, "api.ValidatorUptime", err))
			return
		}
		e, err := strconv.ParseInt(q.Get("end"), 10, 32)
		if err != nil {
			c.writeError(w, nerrors.Wrap(nerrors.KindParseInt, "api.ValidatorUptime", err))
			return
		}
		s32, e32 := int32(s), int32(e)
		start, end = &s32, &e32
	}

	signed, rangeSize, err := c.api.ValidatorUptime(r.Context(), addr, start, end)
	if err != nil {
		c.writeError(w, err)
		return
	}
	uptime := float64(0)
	if rangeSize > 0 {
		uptime = float64(signed) / float64(rangeSize)
	}
	c.writeJSON(w, map[string]float64{"uptime": uptime})
}
