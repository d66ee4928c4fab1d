// Package client contains the backend contract of the gophchat CLI and its two
// implementations.
//
// # Overview
//
//  1. Client is the transport-agnostic contract used by the session and
//     conversation services: signup/login/logout/current user, conversation
//     CRUD and message posting, plus Ping.
//  2. HTTPClient talks to the REST backend. It keeps the session cookie in a
//     cookie jar and maps HTTP statuses to sentinel errors.
//  3. LocalClient keeps users, the current session and conversations in a
//     local SQLite file (InitDatabase, RunMigrations) and answers with an echo
//     bot.
//
// # Error Handling
//
// Failures are reported as ErrUnavailable (network), or as *APIError carrying
// the server's message. APIError matches ErrUnauthorized for 401/403 and
// ErrNotFound for 404 under errors.Is.
//
// # Session Expiry
//
// SetUnauthorizedHandler installs a single hook that runs on every 401/403,
// whichever call produced it. The CLI uses it to drop the session and return
// to the login view.
package client
