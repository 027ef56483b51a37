package middleware

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/transcribe-api/internal/api/shared"
	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/redact"
)

// Recoverer turns a panic in a handler into a 500 response with a single
// "semantic" error whose message is the redacted panic value. The panic
// ends that request only.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				domain.CodeSemantic, redact.Error(err), fmt.Errorf("handler panic: %w", err))
		}()
		next.ServeHTTP(w, r)
	})
}
