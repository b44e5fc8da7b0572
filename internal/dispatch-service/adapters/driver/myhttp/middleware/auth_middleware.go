package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"

	"flytaxi/internal/dispatch-service/adapters/driver/myhttp/handle"
)

type AuthMiddleware struct {
	accessSecret string
}

func NewAuthMiddleware(accessSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		accessSecret: accessSecret,
	}
}

// Wrap admits driver tokens and forwards the caller identity in X-DriverId.
func (am *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return am.wrapRole("DRIVER", next)
}

// WrapAdmin gates operator-only routes like approval.
func (am *AuthMiddleware) WrapAdmin(next http.Handler) http.Handler {
	return am.wrapRole("ADMIN", next)
}

func (am *AuthMiddleware) wrapRole(wantRole string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			// the websocket handshake cannot set headers from a browser, so
			// the stream route also admits a token query parameter
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("empty token"))
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return []byte(am.accessSecret), nil
		})
		if err != nil {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("failed to parse token"))
			return
		}
		if !token.Valid {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("invalid claims"))
			return
		}

		driverID, ok := claims["driver_id"].(string)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("driver id not found in token"))
			return
		}
		role, ok := claims["role"].(string)
		if !ok {
			handle.JsonError(w, http.StatusUnauthorized, fmt.Errorf("role not found in token"))
			return
		}
		if role != wantRole {
			handle.JsonError(w, http.StatusForbidden, fmt.Errorf("route requires %s role", wantRole))
			return
		}

		r.Header.Set("X-DriverId", driverID)
		next.ServeHTTP(w, r)
	})
}
