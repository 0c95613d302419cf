package weberr

import (
	"net/http"
	"net/url"
)

// ErrorResponse is the JSON body of every failed request. Redirect is set when the
// client should send the user elsewhere (login, purchase page) instead of retrying.
type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	return newError(err, &ErrorResponse{Error: msg}, status, opts...)
}

func newError(err error, body *ErrorResponse, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(body, status))

	return Wrap(e, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

// LoginRequired is NotAuthorized with a pointer to the login flow that returns to next.
func LoginRequired(err error, next string, opts ...Opt) error {
	return newError(
		err,
		&ErrorResponse{Error: "authentication required", Redirect: "/login?next=" + url.QueryEscape(next)},
		http.StatusUnauthorized,
		opts...,
	)
}

// PurchaseRequired reports a denied entitlement and where the item can be bought.
func PurchaseRequired(err error, purchaseURL string, opts ...Opt) error {
	return newError(
		err,
		&ErrorResponse{Error: "purchase required to access this content", Redirect: purchaseURL},
		http.StatusForbidden,
		opts...,
	)
}

func Conflict(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusConflict, opts...)
}

func Unprocessable(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusUnprocessableEntity, opts...)
}

// Unavailable marks a transient upstream failure the client may retry.
func Unavailable(err error, opts ...Opt) error {
	return NewError(
		err,
		"the service is temporarily unavailable, please retry",
		http.StatusServiceUnavailable,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}

// InvalidInput is a 400 whose message is the validation error itself.
func InvalidInput(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, opts...)
}
