package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a panicking handler into a 500 page rendered by onPanic.
//
// It replaces chi's Recoverer, which answers with a bare status line. Open
// database transactions are rolled back by the repository's deferred
// Rollback while the panic unwinds, before onPanic runs.
func Recoverer(logger *slog.Logger, onPanic func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// The server uses ErrAbortHandler to abort a response silently.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("handler panic",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				onPanic(w, r, fmt.Errorf("panic: %v", rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
