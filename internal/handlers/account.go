package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/PyWorldGeo/chatroomproject2/internal/auth"
	"github.com/PyWorldGeo/chatroomproject2/internal/config"
	"github.com/PyWorldGeo/chatroomproject2/internal/logging"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	"github.com/PyWorldGeo/chatroomproject2/internal/validation"
)

// フォームに表示するメッセージ
const (
	msgUserNotExist     = "User does not exist!"
	msgInvalidPassword  = "Password is not valid..."
	msgRegistrationFail = "An error occurred during registration!"
)

// AccountHandler はログイン・登録・プロフィールの画面を扱います
type AccountHandler struct {
	accounts *service.AccountService
	forum    *service.ForumService
	sessions *auth.Sessions
	avatar   config.AvatarConfig
	view     *render.Renderer
}

func NewAccountHandler(accounts *service.AccountService, forum *service.ForumService, sessions *auth.Sessions, avatar config.AvatarConfig, view *render.Renderer) *AccountHandler {
	return &AccountHandler{accounts: accounts, forum: forum, sessions: sessions, avatar: avatar, view: view}
}

// Login はログインフォームの表示（GET）と認証（POST）を行います
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, me *models.User) {
	if me != nil {
		redirect(w, r, "/")
		return
	}
	next := r.URL.Query().Get("next")
	data := render.Data{"Page": "login", "Next": next, "Username": ""}
	if r.Method != http.MethodPost {
		page(h.view, w, r, me, "login_register", data)
		return
	}

	ctx := r.Context()
	username := r.PostFormValue("username")
	if v := r.PostFormValue("next"); v != "" {
		next = v
	}
	data["Next"] = next
	data["Username"] = username

	var flash []string
	// ユーザーが見つからなくても認証は試みる
	exists, err := h.accounts.UserExists(ctx, username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !exists {
		flash = append(flash, msgUserNotExist)
	}

	user, err := h.accounts.Authenticate(ctx, username, r.PostFormValue("password"))
	switch {
	case err == nil:
		if err := h.sessions.Login(w, r, user); err != nil {
			writeServiceError(w, r, err)
			return
		}
		logging.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("user logged in")
		redirect(w, r, auth.SafeNext(next))
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		flash = append(flash, msgInvalidPassword)
	default:
		writeServiceError(w, r, err)
		return
	}
	data["Flash"] = flash
	page(h.view, w, r, me, "login_register", data)
}

// Logout はセッションを破棄してホームへ戻ります
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request, _ *models.User) {
	if err := h.sessions.Logout(w, r); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to delete session")
	}
	redirect(w, r, "/")
}

// Register はユーザー登録フォームの表示（GET）と登録（POST）を行います
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request, me *models.User) {
	form := registerForm{}
	data := render.Data{"Page": "register"}
	if r.Method == http.MethodPost {
		form = parseRegisterForm(r)
		errs := validation.Validate(&form)
		if errs == nil {
			user, err := h.accounts.Register(r.Context(), service.RegisterInput{
				Name:     form.Name,
				Username: form.Username,
				Email:    form.Email,
				Password: form.Password1,
			})
			if err == nil {
				if err := h.sessions.Login(w, r, user); err != nil {
					writeServiceError(w, r, err)
					return
				}
				logging.Ctx(r.Context()).Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
				redirect(w, r, "/")
				return
			}
			errs = validation.FieldErrors{}
			if !addTakenError(errs, err) {
				writeServiceError(w, r, err)
				return
			}
		}
		data["Errors"] = errs
		data["Flash"] = []string{msgRegistrationFail}
	}
	data["Fields"] = form.fields()
	page(h.view, w, r, me, "login_register", data)
}

// Profile はユーザーのプロフィールを表示します
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	h.renderProfile(w, r, me, id)
}

// ContactUser はプロフィールの持ち主へメールを送り、プロフィールを再表示します
func (h *AccountHandler) ContactUser(w http.ResponseWriter, r *http.Request, me *models.User) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := h.forum.ContactUser(r.Context(), id, me, service.ContactInput{
		Title:   r.PostFormValue("title"),
		Message: r.PostFormValue("message"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.renderProfile(w, r, me, id)
}

func (h *AccountHandler) renderProfile(w http.ResponseWriter, r *http.Request, me *models.User, id uint) {
	v, err := h.forum.Profile(r.Context(), id, r.URL.Query().Get("page"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page(h.view, w, r, me, "profile", render.Data{
		"Profile":  &v.User,
		"IsSelf":   me != nil && me.ID == v.User.ID,
		"Rooms":    v.Rooms,
		"Messages": v.Messages,
		"Topics":   v.Topics,
	})
}

// UpdateUser はログイン中のユーザー自身の情報を編集します
// 入力エラーの場合はフィールドのエラーのみ表示し、フォーム全体のメッセージは出しません
func (h *AccountHandler) UpdateUser(w http.ResponseWriter, r *http.Request, me *models.User) {
	form := userFormFrom(me)
	errs := validation.FieldErrors{}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, h.avatar.MaxBytes+(1<<20))
		if err := r.ParseMultipartForm(h.avatar.MaxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			errs.Add("avatar", "The upload is too large.")
		}
		form = parseUserForm(r)
		if fe := validation.Validate(&form); fe != nil {
			for field, msgs := range fe {
				for _, m := range msgs {
					errs.Add(field, m)
				}
			}
		}
		avatar, err := readAvatar(r, h.avatar)
		if err != nil {
			errs.Add("avatar", err.Error())
		}

		if len(errs) == 0 {
			user, err := h.accounts.UpdateProfile(r.Context(), me, service.ProfileInput{
				Name:     form.Name,
				Username: form.Username,
				Email:    form.Email,
				Bio:      form.Bio,
				Avatar:   avatar,
			})
			if err == nil {
				redirect(w, r, fmt.Sprintf("/profile/%d", user.ID))
				return
			}
			if !addTakenError(errs, err) {
				writeServiceError(w, r, err)
				return
			}
		}
	}
	page(h.view, w, r, me, "update_user", render.Data{"Fields": form.fields(), "Errors": errs})
}
