package middleware

import (
	"context"
	"net/http"

	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
)

type ActivityToucher interface {
	TouchActivity(ctx context.Context, uid string)
}

// Breaker puts the process-wide quota breaker on every request context.
func Breaker(br *breaker.Breaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(breaker.ToContext(r.Context(), br)))
		})
	}
}

// Activity stamps the caller's last activity after the request is served. It must
// run after FirebaseAuth.
func Activity(users ActivityToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if uid := UID(r.Context()); uid != "" {
				users.TouchActivity(context.WithoutCancel(r.Context()), uid)
			}
		})
	}
}
