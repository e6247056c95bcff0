package http

import (
	"net/http"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/auth"
	"github.com/PyWorldGeo/chatroomproject2/internal/handlers"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers はルーターに登録するハンドラー一式です
type Handlers struct {
	Forum   *handlers.ForumHandler
	Account *handlers.AccountHandler
	Feed    *handlers.FeedHandler
	Avatar  *handlers.AvatarHandler
	Health  *handlers.HealthHandler
}

// Options はルーターの設定です
type Options struct {
	AllowedOrigins []string
	// ログイン・登録POSTのIPごとのレート制限（0以下で無効）
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func NewRouter(h Handlers, sessions *auth.Sessions, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer, metrics)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.Health.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", render.Static()))
	r.Get("/avatars/{userId}", h.Avatar.Get)

	limit := func(next http.Handler) http.Handler { return next }
	if opts.LoginRateLimit > 0 {
		limit = httprate.LimitByIP(opts.LoginRateLimit, opts.LoginRateWindow)
	}

	id := handlers.WithIdentity
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", id(h.Forum.Home))
		r.Get("/room/{id}", id(h.Forum.Room))
		r.Get("/room/{id}/ws", id(h.Feed.HandleWebSocket))
		r.Get("/topics", id(h.Forum.Topics))
		r.Get("/activity", id(h.Forum.Activity))
		r.Get("/profile/{id}", id(h.Account.Profile))

		r.Get("/login", id(h.Account.Login))
		r.With(limit).Post("/login", id(h.Account.Login))
		r.Get("/logout", id(h.Account.Logout))
		r.Get("/register", id(h.Account.Register))
		r.With(limit).Post("/register", id(h.Account.Register))

		// ログイン必須
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireLogin)

			r.Post("/room/{id}", id(h.Forum.PostMessage))
			r.Post("/profile/{id}", id(h.Account.ContactUser))
			r.Get("/create-room", id(h.Forum.CreateRoom))
			r.Post("/create-room", id(h.Forum.CreateRoom))
			r.Get("/update-room/{id}", id(h.Forum.UpdateRoom))
			r.Post("/update-room/{id}", id(h.Forum.UpdateRoom))
			r.Get("/delete-room/{id}", id(h.Forum.DeleteRoom))
			r.Post("/delete-room/{id}", id(h.Forum.DeleteRoom))
			r.Get("/delete-message/{id}", id(h.Forum.DeleteMessage))
			r.Post("/delete-message/{id}", id(h.Forum.DeleteMessage))
			r.Get("/update-user", id(h.Account.UpdateUser))
			r.Post("/update-user", id(h.Account.UpdateUser))
		})
	})

	return r
}
