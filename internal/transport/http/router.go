package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/hivedesk/api/internal/application/devauth"
	fileapp "github.com/hivedesk/api/internal/application/file"
	"github.com/hivedesk/api/internal/application/magiclink"
	"github.com/hivedesk/api/internal/application/note"
	"github.com/hivedesk/api/internal/application/notification"
	"github.com/hivedesk/api/internal/application/project"
	"github.com/hivedesk/api/internal/application/session"
	"github.com/hivedesk/api/internal/application/task"
	"github.com/hivedesk/api/internal/application/user"
	"github.com/hivedesk/api/internal/config"
	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/transport/http/handler"
	appmiddleware "github.com/hivedesk/api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sessionSvc := session.NewService(session.ServiceDeps{
		SessionRepo: deps.SessionRepo,
		UserRepo:    deps.UserRepo,
		Issuer:      deps.Issuer,
		RefreshTTL:  cfg.RefreshTokenTTL,
	})
	magicSvc := magiclink.NewService(magiclink.ServiceDeps{
		UserRepo:    deps.UserRepo,
		MethodRepo:  deps.AuthMethodRepo,
		LinkRepo:    deps.MagicLinkRepo,
		Mailer:      deps.Mailer,
		Sessions:    sessionSvc,
		LinkBaseURL: cfg.MagicLinkBaseURL,
		LinkTTL:     config.MagicLinkTTL,
		Sandbox:     cfg.Sandbox,
	})
	devSvc := devauth.NewService(cfg.DevAccounts, func() bool { return cfg.Sandbox })
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, SessionRepo: deps.SessionRepo})
	projectSvc := project.NewService(project.ServiceDeps{ProjectRepo: deps.ProjectRepo})
	taskSvc := task.NewService(task.ServiceDeps{
		TaskRepo:         deps.TaskRepo,
		ProjectRepo:      deps.ProjectRepo,
		NotificationRepo: deps.NotificationRepo,
		Events:           deps.Events,
	})
	noteSvc := note.NewService(note.ServiceDeps{NoteRepo: deps.NoteRepo, ProjectRepo: deps.ProjectRepo})
	notifSvc := notification.NewService(deps.NotificationRepo)
	fileSvc := fileapp.NewService(deps.S3Store, deps.FileRepo)

	authn := &appmiddleware.Authenticator{
		Issuer:   deps.Issuer,
		Dev:      devSvc,
		Sessions: deps.SessionRepo,
		Users:    deps.UserRepo,
	}

	// 5 requests/second, burst of 10, applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(magicSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	devH := handler.NewDevHandler(devSvc)
	userH := handler.NewUserHandler(userSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	taskH := handler.NewTaskHandler(taskSvc)
	noteH := handler.NewNoteHandler(noteSvc)
	fileH := handler.NewFileHandler(fileSvc)
	notifH := handler.NewNotificationHandler(notifSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes (no auth)
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/magic-link", authH.RequestLink)
		r.With(sensitiveRL.Limit).Post("/auth/verify-token", authH.VerifyToken)
		r.With(sensitiveRL.Limit).Post("/auth/verify-code", authH.VerifyCode)
		r.With(sensitiveRL.Limit).Get("/auth/verify", authH.VerifyLink)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.Get("/auth/dev-accounts", devH.ListAccounts)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authn.Middleware)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/me", userH.Me)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			r.Post("/projects", projectH.Create)
			r.Get("/projects", projectH.List)
			r.Get("/projects/{id}", projectH.Get)
			r.Put("/projects/{id}", projectH.Update)
			r.Delete("/projects/{id}", projectH.Delete)

			r.Post("/projects/{id}/tasks", taskH.Create)
			r.Get("/projects/{id}/tasks", taskH.ListByProject)
			r.Get("/tasks/assigned", taskH.ListAssigned)
			r.Get("/tasks/{id}", taskH.Get)
			r.Put("/tasks/{id}", taskH.Update)
			r.Delete("/tasks/{id}", taskH.Delete)

			r.Post("/projects/{id}/notes", noteH.Create)
			r.Get("/projects/{id}/notes", noteH.ListByProject)
			r.Get("/notes/{id}", noteH.Get)
			r.Put("/notes/{id}", noteH.Update)
			r.Delete("/notes/{id}", noteH.Delete)

			r.Post("/files", fileH.Upload)
			r.Get("/files", fileH.List)
			r.Get("/files/{id}", fileH.Download)
			r.Get("/files/{id}/url", fileH.PresignedURL)
			r.Delete("/files/{id}", fileH.Delete)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}/read", notifH.MarkAsRead)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Deactivate)
			})
		})
	})

	return r
}
