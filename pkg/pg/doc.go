// Package pg connects grimoire to PostgreSQL through a pgx connection pool,
// applies goose migrations and classifies driver errors.
//
// Repositories depend on the Querier interface instead of *pgxpool.Pool so
// they can run inside a transaction or against a pool interchangeably.
package pg
