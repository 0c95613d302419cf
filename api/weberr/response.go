package weberr

import (
	"errors"
	"net/http"
)

type responder interface {
	Response() (body interface{}, status int)
}

// Response returns the outermost client response attached to err.
func Response(err error) (body interface{}, status int, ok bool) {
	var re responder
	if errors.As(err, &re) {
		body, code := re.Response()
		return body, code, true
	}
	return nil, 0, false
}

// Status reports the HTTP status err would be answered with.
func Status(err error) int {
	if _, code, ok := Response(err); ok {
		return code
	}
	return http.StatusInternalServerError
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) {
	return e.body, e.status
}

func (e *responseError) Unwrap() error {
	return e.error
}
