// Package requestid tags every request with an ID for log correlation.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"locator/pkg/requestcontext"
)

// Header carries the request ID on the wire, inbound and outbound.
const Header = "X-Request-ID"

// RequestID propagates the caller-supplied request ID, or mints one, into
// the context and the response. This middleware should be applied before any
// handler that logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
