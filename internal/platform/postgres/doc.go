// Package postgres stores the study snapshot in a PostgreSQL table through
// the pgx database/sql driver. The schema is applied with the migrations
// package.
package postgres
