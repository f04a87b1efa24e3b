package main

import (
	"context"
	"net/http"
)

// It is recommended to use a custom type for our context keys.
type contextKey string

const requestIDContextKey = contextKey("request_id")

// contextSetRequestID returns a copy of the given request with the request ID attached to its context.
func (app *application) contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

// contextGetRequestID returns the request ID, or an empty string for requests that bypassed the requestID middleware.
func (app *application) contextGetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
