package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"namadexer/internal/metrics"
)

// NewRouter builds the full route table, wrapped in CORS middleware
// permissive by default or restricted to allowOrigins. m's Handler is
// mounted at /metrics only when m is non-nil.
func NewRouter(c *Controller, m *metrics.Metrics, allowOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/block/height/{h}", c.BlockByHeight).Methods(http.MethodGet)
	r.HandleFunc("/block/hash/{hex}", c.BlockByHash).Methods(http.MethodGet)
	r.HandleFunc("/block/last", c.LastBlock).Methods(http.MethodGet)
	r.HandleFunc("/tx/vote_proposal/{id}", c.VoteProposal).Methods(http.MethodGet)
	r.HandleFunc("/tx/shielded", c.ShieldedAssets).Methods(http.MethodGet)
	r.HandleFunc("/tx/{hex}", c.TxByHash).Methods(http.MethodGet)
	r.HandleFunc("/address/{addr}", c.TxsByAddress).Methods(http.MethodGet)
	r.HandleFunc("/account/updates/{addr}", c.AccountUpdates).Methods(http.MethodGet)
	r.HandleFunc("/validator/{hex}/uptime", c.ValidatorUptime).Methods(http.MethodGet)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	corsOpts := cors.Options{AllowedMethods: []string{http.MethodGet}}
	if len(allowOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
	} else {
		corsOpts.AllowedOrigins = allowOrigins
	}
	return cors.New(corsOpts).Handler(r)
}
