package controllers

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/blogem/audit-tracker/services"
	"github.com/blogem/audit-tracker/userctx"
)

// DashboardController handles the landing and dashboard pages
type DashboardController struct {
	services *services.Services
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(services *services.Services) *DashboardController {
	return &DashboardController{
		services: services,
	}
}

// Index handles GET /. Signed-out visitors get the landing page; signed-in
// users get their dashboard.
func (c *DashboardController) Index(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	userID, _ := sess.Get("user_id").(string)

	if userID == "" {
		templateData := struct {
			Title       string
			CurrentPage string
			Nickname    string
		}{
			Title:       "Audit Tracker",
			CurrentPage: "landing",
		}
		renderTemplate(w, "landing", "templates/landing.html", templateData)
		return
	}

	ctx := userctx.SetUserID(r.Context(), userID)

	stats, err := c.services.Audits.GetDashboardStats(ctx)
	if err != nil {
		http.Error(w, "Failed to load dashboard data: "+err.Error(), http.StatusInternalServerError)
		return
	}

	nickname, _ := sess.Get("user_nickname").(string)

	templateData := struct {
		Title       string
		CurrentPage string
		Nickname    string
		Stats       *services.DashboardStats
	}{
		Title:       "Dashboard",
		CurrentPage: "dashboard",
		Nickname:    nickname,
		Stats:       stats,
	}

	renderTemplate(w, "dashboard", "templates/dashboard.html", templateData)
}
