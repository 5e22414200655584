package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type jsonResponse struct {
	code int
	body JSONResponse
	err  error
}

func (j *jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.code)
	return json.NewEncoder(w).Encode(j.body)
}

func (j *jsonResponse) status() int  { return j.code }
func (j *jsonResponse) cause() error { return j.err }

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.code = status
	}
}

func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		r.body.Meta = meta
	}
}

// JSON wraps v in the data envelope with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{code: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Created answers 201 with v.
func Created(v any) Response {
	return JSON(v, WithJSONStatus(http.StatusCreated))
}

// JSONError renders err in the error envelope. Only HTTPError messages reach
// the client; other errors are reported by their status text.
func JSONError(err error, opts ...JSONOption) Response {
	code, key := classify(err)

	msg := http.StatusText(code)
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		msg = httpErr.Error()
	}

	r := &jsonResponse{
		code: code,
		body: JSONResponse{Error: &ErrorDetail{Code: key, Message: msg}},
		err:  err,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
