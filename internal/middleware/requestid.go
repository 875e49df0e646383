package middleware

import (
	"context"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "requestID"

const maxInboundRequestID = 64

// RequestID tags each request with an id, reusing a sane inbound
// X-Request-ID and otherwise generating a nanoid. The id is echoed in the
// response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxInboundRequestID {
			generated, err := gonanoid.New()
			if err == nil {
				id = generated
			}
		}
		if id != "" {
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
