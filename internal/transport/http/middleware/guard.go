package middleware

import "net/http"

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "You must be logged in to perform this request.", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedUp additionally rejects users that have not chosen a
// shortname and preferred name yet.
func RequireSignedUp(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		if !u.IsSignedUp() {
			writeJSONError(w, http.StatusForbidden, "You must complete signup to perform this request.", "")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
