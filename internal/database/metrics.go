package database

import (
	"errors"
	"time"

	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "metrics:query_start"

// RegisterQueryMetrics times every gorm operation into the
// vaultbox_db_query_duration_seconds histogram.
func RegisterQueryMetrics(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:start_create", startTimer),
		cb.Create().After("gorm:create").Register("metrics:observe_create", observeQuery("create")),
		cb.Query().Before("gorm:query").Register("metrics:start_query", startTimer),
		cb.Query().After("gorm:query").Register("metrics:observe_query", observeQuery("select")),
		cb.Update().Before("gorm:update").Register("metrics:start_update", startTimer),
		cb.Update().After("gorm:update").Register("metrics:observe_update", observeQuery("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:start_delete", startTimer),
		cb.Delete().After("gorm:delete").Register("metrics:observe_delete", observeQuery("delete")),
		cb.Row().Before("gorm:row").Register("metrics:start_row", startTimer),
		cb.Row().After("gorm:row").Register("metrics:observe_row", observeQuery("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:start_raw", startTimer),
		cb.Raw().After("gorm:raw").Register("metrics:observe_raw", observeQuery("raw")),
	)
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		observability.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
