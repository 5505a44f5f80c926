package middleware

import (
	"context"
	"net/http"
	"sync"
)

type routeKey struct{}

type routeInfo struct {
	mu      sync.Mutex
	pattern string
}

// withRoute makes sure r carries a route holder and returns it.
func withRoute(r *http.Request) (*http.Request, *routeInfo) {
	if info, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
		return r, info
	}
	info := &routeInfo{}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, info)), info
}

func (ri *routeInfo) get() string {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	return ri.pattern
}

// CaptureRoute wraps a ServeMux so that the pattern it matched is visible to
// outer middleware, which see a different *http.Request than the mux.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if info, ok := r.Context().Value(routeKey{}).(*routeInfo); ok && r.Pattern != "" {
			info.mu.Lock()
			info.pattern = r.Pattern
			info.mu.Unlock()
		}
	})
}
