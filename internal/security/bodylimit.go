package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"
)

// BodyLimit returns middleware rejecting request payloads larger than max
// bytes with HTTP 413. A non-positive max disables the check.
func BodyLimit(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > max && r.ContentLength != -1 {
				http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
				return
			}

			limited := io.LimitReader(r.Body, max+1)
			buf, err := io.ReadAll(limited)
			if err != nil && !errors.Is(err, io.EOF) {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if int64(len(buf)) > max {
				http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
				return
			}

			_ = r.Body.Close()

			r.Body = io.NopCloser(bytes.NewReader(buf))
			r.ContentLength = int64(len(buf))
			next.ServeHTTP(w, r)
		})
	}
}
