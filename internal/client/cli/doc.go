// Package cli provides the interactive todokeeper command-line client.
//
// It wires configuration, the local SQLite key-value store, the chosen
// variant (local or remote) and an interactive REPL over the task list
// controller. The persisted session is resumed once at start-up. In the
// remote variant a background watcher pings the server and shows whether
// it is online.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
