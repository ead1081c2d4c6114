package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/adapter/http/dto"
)

// Recovery turns a panic in a handler into a 500 carrying the request ID so
// the failure can be found in the logs. A transaction left open by the
// panicking handler is rolled back by its deferred Rollback.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			reqID := chimiddleware.GetReqID(r.Context())
			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("handler panicked")

			resp := dto.ErrorResponse{Error: "internal server error"}
			if reqID != "" {
				resp.Message = "request " + reqID
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(resp)
		}()

		next.ServeHTTP(w, r)
	})
}
