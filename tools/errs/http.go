package errs

import "net/http"

// HTTPStatus maps the error taxonomy onto REST status codes.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeUnauthenticated, CodeBadCredential:
		return http.StatusUnauthorized
	case CodeUserNotFound, CodeChannelNotFound:
		return http.StatusNotFound
	case CodeUserExists:
		return http.StatusConflict
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeMalformedFrame, CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AsCodeError normalizes any error into the wire shape, hiding internal
// detail behind a generic persistence failure.
func AsCodeError(err error) *CodeError {
	if ce, ok := err.(*CodeError); ok {
		return &CodeError{Code: ce.Code, Msg: ce.Msg}
	}
	if c := Code(err); c != 0 {
		return &CodeError{Code: c, Msg: err.Error()}
	}
	return &CodeError{Code: CodePersistenceFailure, Msg: "internal error"}
}
