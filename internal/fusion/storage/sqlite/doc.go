// Package sqlite contains the SQLite repository for time-to-collision
// results.
//
// Runs and per-track estimates are written here rather than in the layer
// packages (L1-L5) so the estimators stay free of SQL. The schema is
// embedded and applied with golang-migrate when a database is opened.
package sqlite
