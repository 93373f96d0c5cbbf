package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BasicAuth gates every request under the admin prefix behind a configured
// credential pair. The gate is stateless: each request is authenticated
// independently, nothing is remembered between calls.
//
// Missing server-side configuration is a 500, never an open door. A missing
// or malformed header and a credential mismatch both end in the same 401
// challenge, so a caller cannot learn which half of the pair was wrong.
func BasicAuth(user, pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user == "" || pass == "" {
				http.Error(w, "Admin credentials not set", http.StatusInternalServerError)
				return
			}

			reqUser, reqPass, ok := r.BasicAuth()
			if !ok {
				challenge(w, "Auth required")
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(reqUser), []byte(user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(reqPass), []byte(pass)) == 1
			if !userOK || !passOK {
				challenge(w, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Admin"`)
	http.Error(w, msg, http.StatusUnauthorized)
}

// Logger is a structured access log. Every request gets a correlation id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"remote":     r.RemoteAddr,
		}).Info("request")
	})
}

// CORS allows the static frontend to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
