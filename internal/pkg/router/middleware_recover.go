package router

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/mailotp/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 "Server error" response.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel panic value
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic on the server", "because", rvr, "stack", stacktrace.Frames(0))
			writeJSON(w, errorResponse{Error: "Server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
