package middleware

import "net/http"

// Vary adds Accept to the Vary header (RFC 9110 section 12.5.5). Routes that
// negotiate JSON or CBOR depend on it; the CORS middleware adds Origin itself.
func Vary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept")
			next.ServeHTTP(w, r)
		})
	}
}
