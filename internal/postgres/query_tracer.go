package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/jmoiron/sqlx"
)

// slowQueryThreshold promotes a completed query log from debug to warn
const slowQueryThreshold = 250 * time.Millisecond

// TracedQuerier logs every statement that goes through the wrapped Querier
// together with its duration and, inside a transaction, the transaction id.
type TracedQuerier struct {
	Querier
	logger *logger.Logger
	txID   string
}

func NewTracedQuerier(q Querier, logger *logger.Logger, txID string) *TracedQuerier {
	return &TracedQuerier{Querier: q, logger: logger, txID: txID}
}

func (tq *TracedQuerier) observe(start time.Time, query string, args interface{}, err error) {
	elapsed := time.Since(start)
	fields := []interface{}{
		"duration_ms", elapsed.Milliseconds(),
		"query", query,
		"args", args,
	}
	if tq.txID != "" {
		fields = append(fields, "tx_id", tq.txID)
	}

	switch {
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		tq.logger.Errorw("query failed", append(fields, "error", err)...)
	case elapsed >= slowQueryThreshold:
		tq.logger.Warnw("slow query", fields...)
	default:
		tq.logger.Debugw("query", fields...)
	}
}

func (tq *TracedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := tq.Querier.ExecContext(ctx, query, args...)
	tq.observe(start, query, args, err)
	return res, err
}

func (tq *TracedQuerier) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := tq.Querier.NamedExecContext(ctx, query, arg)
	tq.observe(start, query, arg, err)
	return res, err
}

func (tq *TracedQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := tq.Querier.QueryContext(ctx, query, args...)
	tq.observe(start, query, args, err)
	return rows, err
}

func (tq *TracedQuerier) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	start := time.Now()
	rows, err := tq.Querier.NamedQuery(query, arg)
	tq.observe(start, query, arg, err)
	return rows, err
}

func (tq *TracedQuerier) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := tq.Querier.GetContext(ctx, dest, query, args...)
	tq.observe(start, query, args, err)
	return err
}

func (tq *TracedQuerier) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	start := time.Now()
	err := tq.Querier.SelectContext(ctx, dest, query, args...)
	tq.observe(start, query, args, err)
	return err
}
