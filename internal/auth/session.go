package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/config"
	"github.com/PyWorldGeo/chatroomproject2/internal/idgen"
	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
)

// UserLoader はセッションに保存されたIDからユーザーを取得します
type UserLoader interface {
	User(ctx context.Context, id uint) (models.User, error)
}

// Sessions はRedisに保存するCookieベースのログインセッションを管理します
type Sessions struct {
	repo       repo.SessionRepo
	users      UserLoader
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessions は新しいSessionsを作成します
func NewSessions(r repo.SessionRepo, users UserLoader, cfg config.SessionConfig) *Sessions {
	return &Sessions{
		repo:       r,
		users:      users,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.CookieSecure,
	}
}

// Login は新しいセッションを作成しCookieを発行します。既存のセッションは破棄します
func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, user models.User) error {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		if err := s.repo.DeleteSession(r.Context(), c.Value); err != nil {
			return fmt.Errorf("delete old session: %w", err)
		}
	}

	id, err := idgen.NewSessionID()
	if err != nil {
		return fmt.Errorf("generate session id: %w", err)
	}
	now := time.Now()
	sess := models.Session{
		ID:        id,
		UserID:    user.ID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(r.Context(), sess); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.setCookie(w, id, s.ttl)
	return nil
}

// Logout はセッションを破棄しCookieを削除します
func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(s.cookieName)
	s.setCookie(w, "", -1)
	if err != nil || c.Value == "" {
		return nil
	}
	return s.repo.DeleteSession(r.Context(), c.Value)
}

// Middleware はCookieのセッションからユーザーを読み込みcontextに格納します
// アクセスのたびに有効期限を延長します
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()

		sess, ok, err := s.repo.GetSession(ctx, c.Value)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("failed to load session")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			s.setCookie(w, "", -1)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.User(ctx, sess.UserID)
		if err != nil {
			// ユーザーが削除されたセッションは匿名扱い
			logging.Ctx(ctx).Warn().Err(err).Uint("user_id", sess.UserID).Msg("session user unavailable")
			_ = s.repo.DeleteSession(ctx, sess.ID)
			s.setCookie(w, "", -1)
			next.ServeHTTP(w, r)
			return
		}

		if err := s.repo.TouchSession(ctx, sess.ID, int(s.ttl/time.Second)); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to extend session")
		} else {
			s.setCookie(w, sess.ID, s.ttl)
		}
		next.ServeHTTP(w, r.WithContext(WithUser(ctx, &user)))
	})
}

func (s *Sessions) setCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(w, c)
}

type contextKey struct{}

// WithUser はログイン中のユーザーをcontextに格納します
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// CurrentUser はログイン中のユーザーを返します。匿名ならnil
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(contextKey{}).(*models.User)
	return u
}
