package errs

// Gateway error taxonomy. Per-connection errors (11xx, 13xx) end that
// connection only; per-message errors (12xx) are reported to the sender
// and never close the connection.
const (
	CodeUnauthenticated    = 1101
	CodePayloadTooLarge    = 1201
	CodeChannelNotFound    = 1202
	CodePersistenceFailure = 1203
	CodeMalformedFrame     = 1204
	CodeTransport          = 1301

	CodeUserNotFound  = 1401
	CodeUserExists    = 1402
	CodeBadCredential = 1403
	CodeBadRequest    = 1404
)

var (
	ErrUnauthenticated    = NewCodeError(CodeUnauthenticated, "unauthenticated")
	ErrPayloadTooLarge    = NewCodeError(CodePayloadTooLarge, "payload too large")
	ErrChannelNotFound    = NewCodeError(CodeChannelNotFound, "channel not found")
	ErrPersistenceFailure = NewCodeError(CodePersistenceFailure, "persistence failure")
	ErrMalformedFrame     = NewCodeError(CodeMalformedFrame, "malformed frame")
	ErrTransport          = NewCodeError(CodeTransport, "transport error")

	ErrUserNotFound  = NewCodeError(CodeUserNotFound, "user not found")
	ErrUserExists    = NewCodeError(CodeUserExists, "user already exists")
	ErrBadCredential = NewCodeError(CodeBadCredential, "bad credential")
	ErrBadRequest    = NewCodeError(CodeBadRequest, "bad request")
)
