package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/audit-tracker/authenticator"
)

type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

// Login initiates the authentication process
func (ac *AuthController) Login(auth authenticator.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Generate random state
		state, err := generateRandomState()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// Save the state in the session to validate in callback
		sess := session.GetSession(r)
		sess.Set("state", state)

		http.Redirect(w, r, auth.GetAuthURL(state), http.StatusTemporaryRedirect)
	}
}

// Callback handles the callback from the identity provider
func (ac *AuthController) Callback(auth authenticator.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)

		// Verify state
		storedState := sess.Get("state")
		if storedState == nil {
			http.Error(w, "State not found in session", http.StatusBadRequest)
			return
		}

		if r.URL.Query().Get("state") != storedState.(string) {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		// Exchange the code for a token
		token, err := auth.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, "Failed to exchange authorization code for a token: "+err.Error(), http.StatusUnauthorized)
			return
		}

		// Extract and verify the user claims
		claims, err := auth.GetClaims(r.Context(), token)
		if err != nil {
			http.Error(w, "Failed to verify ID Token: "+err.Error(), http.StatusInternalServerError)
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			http.Error(w, "ID token has no subject", http.StatusInternalServerError)
			return
		}
		sess.Set("user_id", sub)

		if email, ok := claims["email"].(string); ok {
			sess.Set("user_email", email)
		}

		// Try to get nickname, fallback to name, then email, then sub
		var displayName string
		if nickname, ok := claims["nickname"].(string); ok && nickname != "" {
			displayName = nickname
		} else if name, ok := claims["name"].(string); ok && name != "" {
			displayName = name
		} else if email, ok := claims["email"].(string); ok && email != "" {
			displayName = email
		} else {
			displayName = sub
		}
		sess.Set("user_nickname", displayName)

		// Clear the state from session
		sess.Delete("state")

		// Send the user back where they were headed, or to the dashboard
		redirect := "/"
		if stored, ok := sess.Get("redirect_after_login").(string); ok && stored != "" {
			redirect = stored
			sess.Delete("redirect_after_login")
		}

		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

// Logout clears the session and returns to the landing page
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	sess.Delete("user_id")
	sess.Delete("user_email")
	sess.Delete("user_nickname")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
