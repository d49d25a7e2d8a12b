package handlers

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"KeeperMigrate/internal/config"
	"KeeperMigrate/internal/middleware"
	"KeeperMigrate/internal/service"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров песочницы Passwork API
func NewHandler(
	authService *service.AuthService,
	vaultService *service.VaultService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	// Handlers
	authHandler := NewAuthHandler(authService, logger)
	vaultHandler := NewVaultHandler(vaultService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// Vault routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/vaults", vaultHandler.Vaults)
			r.Get("/folders", vaultHandler.Folders)
			r.Get("/items", vaultHandler.Items)
			r.Get("/items/{id}", vaultHandler.Item)
			r.Get("/items/{id}/attachments/{attachmentID}", vaultHandler.Attachment)
			r.Get("/activity_logs", vaultHandler.ActivityLogs)
		})
	})

	return &Handler{Router: r}
}
