package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blogem/audit-tracker/authenticator"
	"github.com/blogem/audit-tracker/cache"
	"github.com/blogem/audit-tracker/controllers"
	"github.com/blogem/audit-tracker/database"
	"github.com/blogem/audit-tracker/metrics"
	authmiddleware "github.com/blogem/audit-tracker/middleware"
	"github.com/blogem/audit-tracker/repositories"
	"github.com/blogem/audit-tracker/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize database
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "audit_tracker.db"
	}
	if err := database.InitializeDatabase(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	db := database.GetDB()

	// Query cache: in-process by default, Redis when configured
	store, err := setupCache()
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	// Metrics
	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories, services, controllers
	repos := repositories.NewRepositories(db)
	srvs := services.NewServices(repos, store, m)
	ctrl := controllers.NewControllers(srvs)

	// Initialize OpenID Connect provider
	auth, err := authenticator.NewOpenIDProvider(authenticator.OpenIDConfig{
		Domain:       os.Getenv("OIDC_DOMAIN"),
		ClientID:     os.Getenv("OIDC_CLIENT_ID"),
		ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		CallbackURL:  os.Getenv("OIDC_CALLBACK_URL"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize OpenID provider: %v", err)
	}

	// Set up router
	r, err := setupRouter(ctrl, auth, m)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("🔐 Audit Tracker starting on port %s\n", port)
	fmt.Printf("📂 Visit: http://localhost:%s\n", port)
	fmt.Printf("🗃️  Database: %s\n", dbPath)

	log.Fatal(http.ListenAndServe(":"+port, r))
}

// setupCache picks the query cache backend from the environment
func setupCache() (cache.Store, error) {
	ttl := 5 * time.Minute

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return cache.NewMemoryStore(ttl), nil
	}

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		redisDB = parsed
	}

	return cache.NewRedisStore(addr, os.Getenv("REDIS_PASSWORD"), redisDB, ttl)
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, auth authenticator.Provider, m *metrics.Metrics) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // 60 second timeout for OAuth callbacks
	r.Use(middleware.Compress(5))
	r.Use(m.Middleware)

	// Determine if we should use secure cookies (HTTPS)
	useSecureCookies := os.Getenv("USE_HTTPS") == "true"

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "audit_session",
		Secure:         useSecureCookies,
		Gclifetime:     3600, // Session lifetime in seconds
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static/"))))

	// PUBLIC ROUTES (no authentication required)
	r.Get("/", ctrl.Dashboard.Index) // Landing or dashboard based on auth
	r.Get("/login", ctrl.Auth.Login(auth))
	r.Get("/callback", ctrl.Auth.Callback(auth))
	r.Get("/logout", ctrl.Auth.Logout)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "audit-tracker"}`)
	})

	// PROTECTED ROUTES (authentication required)
	r.Group(func(r chi.Router) {
		r.Use(authmiddleware.RequireAuth)

		// Audit routes
		r.Route("/audits", func(r chi.Router) {
			r.Get("/", ctrl.Audits.Index)
			r.Get("/new", ctrl.Audits.New)
			r.Post("/", ctrl.Audits.Create)
			r.Get("/{id}", ctrl.Audits.Show)
			r.Get("/{id}/edit", ctrl.Audits.Edit)
			r.Post("/{id}", ctrl.Audits.Update)
			r.Post("/{id}/delete", ctrl.Audits.Delete)

			// Checklist routes
			r.Post("/{id}/checklist/{itemID}", ctrl.Checklist.Update)

			// Finding routes
			r.Post("/{id}/findings", ctrl.Findings.Create)
			r.Get("/{id}/findings/{findingID}/edit", ctrl.Findings.Edit)
		})

		r.Route("/findings", func(r chi.Router) {
			r.Post("/{id}", ctrl.Findings.Update)
			r.Post("/{id}/delete", ctrl.Findings.Delete)
		})
	})

	return r, nil
}
