package common

// SessionCookieName is the default cookie carrying the signed session token
// between the backend and the client.
const SessionCookieName = "gophchat_session"

// RequestIDHeaderName is echoed by the backend on every response so client
// logs can be correlated with server logs.
const RequestIDHeaderName = "X-Request-ID"

// Message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)
