package jwt

import (
	"errors"
	"net/http"
)

// Middleware authenticates requests via the Authorization header, resolving
// and decrypting the subject claim. Authenticated requests continue with the
// subject stored in the context; everything else is answered 401.
func Middleware(service *Service) func(next http.Handler) http.Handler {
	return middleware(service)
}

// RequireRoles authenticates like Middleware and additionally requires the
// token to carry at least one of the given roles. Valid tokens without a
// matching role are answered 403.
func RequireRoles(service *Service, roles ...string) func(next http.Handler) http.Handler {
	return middleware(service, roles...)
}

func middleware(service *Service, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			var (
				subject string
				err     error
			)
			if len(roles) > 0 {
				header = trimBearer(header)
				subject, err = service.SubjectWithRoles(header, roles...)
			} else {
				subject, err = service.SubjectFromHeader(header)
			}
			if err != nil {
				if errors.Is(err, ErrInsufficientRole) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetSubject(r.Context(), subject)))
		})
	}
}

func trimBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return header
}
