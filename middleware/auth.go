package middleware

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/audit-tracker/userctx"
)

// RequireAuth ensures the user is authenticated.
// If not authenticated, redirects to /login and stores the intended destination.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		userID := sess.Get("user_id")

		if userID == nil {
			sess.Set("redirect_after_login", r.URL.Path)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		// Add user identity to request context for the data access layer
		ctx := userctx.SetUserID(r.Context(), userID.(string))
		if email, ok := sess.Get("user_email").(string); ok {
			ctx = userctx.SetUserEmail(ctx, email)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
