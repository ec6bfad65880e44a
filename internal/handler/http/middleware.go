package http

import (
	"mime"
	"net/http"

	apperrors "github.com/kurtadodoli/sevenfour-sub006/pkg/errors"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/httputil"
)

// ContentTypeJSON rejects mutating requests whose body is not JSON. Bodyless
// reads pass through untouched.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			if r.ContentLength <= 0 {
				next.ServeHTTP(w, r)
				return
			}
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			httputil.WriteError(w, r, &apperrors.AppError{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Content-Type must be application/json",
				Status:  http.StatusUnsupportedMediaType,
			}, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
