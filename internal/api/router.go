package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ender-catalog-be/internal/api/handlers"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/isdelr/ender-catalog-be/internal/auth"
	"github.com/isdelr/ender-catalog-be/internal/services"
)

// Dependencies are the collaborators the router wires into its handlers.
type Dependencies struct {
	Accounts    services.AccountServiceProvider
	Products    services.ProductServiceProvider
	Tokens      *auth.TokenManager
	Users       auth.UserLookup
	CORSOrigins []string
	Development bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()
	respond := handlers.NewResponder(deps.Development)

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer(respond))
	r.Use(requestMeta)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	notFound := func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.New(apperr.ErrNotFound, "Not found"))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Tokens, respond)
	userHandler := handlers.NewUserHandler(deps.Accounts, respond)
	productHandler := handlers.NewProductHandler(deps.Products, respond)
	requireAuth := deps.Tokens.Middleware(deps.Users, respond.Error)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Post("/logout", authHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", userHandler.Profile)
			r.Get("/activity", userHandler.Activity)
			r.Get("/activity/summary", userHandler.ActivitySummary)
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", productHandler.GetAll)
			r.Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})
	})

	return r
}
