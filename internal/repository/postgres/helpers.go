package postgres

import (
	"context"
	"fmt"
	"strings"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/postgres"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

// baseParams returns the named parameters shared by every tenant scoped query
func baseParams(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
		"status":    types.StatusPublished,
	}
}

// withPagination appends ordering and pagination clauses for filter
func withPagination(query string, params map[string]interface{}, filter types.BaseFilter, orderBy string) string {
	order := types.OrderDesc
	if filter != nil && filter.GetOrder() == types.OrderAsc {
		order = types.OrderAsc
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", orderBy, strings.ToUpper(order), strings.ToUpper(order))

	if filter == nil || filter.IsUnlimited() {
		return query
	}
	query += " LIMIT :limit OFFSET :offset"
	params["limit"] = filter.GetLimit()
	params["offset"] = filter.GetOffset()
	return query
}

// joinIDs packs ids for an ANY(string_to_array(...)) clause
func joinIDs[T ~string](ids []T) string {
	values := make([]string, len(ids))
	for i, id := range ids {
		values[i] = string(id)
	}
	return strings.Join(values, ",")
}

// getOne runs a named query expected to return at most one row
func getOne[T any](ctx context.Context, db *postgres.DB, entity, query string, params map[string]interface{}) (*T, error) {
	rows, err := db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("failed to get %s", entity))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dbError(err, fmt.Sprintf("failed to get %s", entity))
		}
		return nil, ierr.NewErrorf("%s not found", entity).
			WithHintf("%s not found", capitalize(entity)).
			WithReportableDetails(lo.OmitByKeys(params, []string{"tenant_id", "status", "limit", "offset"})).
			Mark(ierr.ErrNotFound)
	}

	var item T
	if err := rows.StructScan(&item); err != nil {
		return nil, dbError(err, fmt.Sprintf("failed to scan %s", entity))
	}
	return &item, nil
}

// list runs a named query and scans every row
func list[T any](ctx context.Context, db *postgres.DB, entity, query string, params map[string]interface{}) ([]*T, error) {
	rows, err := db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("failed to list %s", entity))
	}
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		var item T
		if err := rows.StructScan(&item); err != nil {
			return nil, dbError(err, fmt.Sprintf("failed to scan %s", entity))
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, fmt.Sprintf("failed to list %s", entity))
	}
	return items, nil
}

// count runs a named COUNT(*) query
func count(ctx context.Context, db *postgres.DB, entity, query string, params map[string]interface{}) (int, error) {
	rows, err := db.NamedQueryContext(ctx, query, params)
	if err != nil {
		return 0, dbError(err, fmt.Sprintf("failed to count %s", entity))
	}
	defer rows.Close()

	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, dbError(err, fmt.Sprintf("failed to count %s", entity))
		}
	}
	return total, nil
}

// execOne runs a named statement that must touch exactly one row
func execOne(ctx context.Context, db *postgres.DB, entity, id, query string, arg interface{}) error {
	result, err := db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return dbError(err, fmt.Sprintf("failed to update %s", entity))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return dbError(err, fmt.Sprintf("failed to update %s", entity))
	}
	if affected == 0 {
		return ierr.NewErrorf("%s not found", entity).
			WithHintf("%s not found", capitalize(entity)).
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

// dbError marks a driver error, unique index violations become conflicts
func dbError(err error, msg string) error {
	if postgres.IsUniqueViolation(err) {
		return ierr.WithError(err).
			WithMessage(msg).
			WithHint("A record with the same identifier already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithMessage(msg).
		Mark(ierr.ErrDatabase)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
