package db

import "database/sql"

// DBProvider is an interface for database clients that provide access to a sql.DB handle.
// This allows both PostgresClient and SupabaseClient to serve as the replication sink.
type DBProvider interface {
	DB() *sql.DB
}

var (
	_ DBProvider = (*PostgresClient)(nil)
	_ DBProvider = (*SupabaseClient)(nil)
)
