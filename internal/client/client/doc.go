// Package client contains client-side building blocks for todokeeper.
//
// # Overview
//
// The package provides:
//  1. APIClient, a REST client for the todokeeper server. It carries either
//     a bearer token pair or Basic credentials, transparently refreshes an
//     expired access token once per call, and maps HTTP status codes to the
//     sentinel errors of package common.
//  2. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures and 5xx answers match ErrUnavailable (and therefore
// common.ErrorStorageUnavailable). Other failures are *APIError values whose
// Message is the server's error text.
//
// APIClient is safe for concurrent use.
package client
