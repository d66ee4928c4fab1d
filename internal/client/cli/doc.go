// Package cli provides the interactive gophchat command-line client.
//
// It wires configuration, the backend client (REST or local SQLite), the
// session store and conversation repository, and a REPL that renders the
// login, signup and chat views.
//
// Key features:
//   - Signup / Login / Logout with inline form errors
//   - Create, select, rename and delete conversations
//   - Send messages and retry a failed send
//   - Filter the sidebar by name
//
// Any 401/403 from the backend clears the session and returns to the login
// view. The REPL is started via App.Run(ctx), which blocks until the user
// exits.
package cli
