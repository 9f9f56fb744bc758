package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"namadexer/internal/readapi"
)

type fakeRow struct{ err error }

func (r fakeRow) Scan(dest ...interface{}) error { return r.err }

type fakeQuerier struct{ row pgx.Row }

func (q fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (q fakeQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return q.row
}

func newTestController(row pgx.Row) *Controller {
	api := readapi.New(fakeQuerier{row: row}, "test_chain")
	return NewController(api, logrus.NewEntry(logrus.New()))
}

func TestBlockByHashInvalidHexReturns400(t *testing.T) {
	c := newTestController(fakeRow{err: pgx.ErrNoRows})
	r := mux.NewRouter()
	r.HandleFunc("/block/hash/{hex}", c.BlockByHash)

	req := httptest.NewRequest(http.MethodGet, "/block/hash/not-hex", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestBlockByHeightMissingRowReturns200Null(t *testing.T) {
	c := newTestController(fakeRow{err: pgx.ErrNoRows})
	r := mux.NewRouter()
	r.HandleFunc("/block/height/{h}", c.BlockByHeight)

	req := httptest.NewRequest(http.MethodGet, "/block/height/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "null\n" {
		t.Fatalf("body = %q, want %q", got, "null\n")
	}
}

func TestBlockByHeightInvalidHeightReturns500(t *testing.T) {
	c := newTestController(fakeRow{})
	r := mux.NewRouter()
	r.HandleFunc("/block/height/{h}", c.BlockByHeight)

	req := httptest.NewRequest(http.MethodGet, "/block/height/not-a-number", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d (ParseInt maps to 500)", rec.Code, http.StatusInternalServerError)
	}
}
