package http

import (
	"net/http"

	"github.com/pitabwire/lingo/localization"
)

// LanguageHTTPMiddleware extracts the requested languages and stores them in the request context.
// With a non nil manager the languages are negotiated against the supported ones.
func LanguageHTTPMiddleware(manager localization.Manager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := localization.ExtractLanguageFromHTTPRequest(r)
		if manager != nil {
			l = localization.Negotiate(manager, l)
		}

		if len(l) > 0 {
			r = r.WithContext(localization.ToContext(r.Context(), l))
		}

		next.ServeHTTP(w, r)
	})
}
