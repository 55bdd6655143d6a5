package middleware

import (
	"net/http"
	"strings"
)

// StripPrefixMiddleware rewrites requests arriving under prefix to their
// bare path, so the service answers the same routes when deployed behind a
// gateway that forwards /api/*. Both "/api" and "/api/..." are rewritten;
// paths that merely start with the prefix text ("/apify") are left alone.
func StripPrefixMiddleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == prefix {
				r2 := r.Clone(r.Context())
				r2.URL.Path = "/"
				next.ServeHTTP(w, r2)
				return
			}
			if strings.HasPrefix(path, prefix+"/") {
				r2 := r.Clone(r.Context())
				r2.URL.Path = strings.TrimPrefix(path, prefix)
				next.ServeHTTP(w, r2)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
