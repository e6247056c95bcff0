package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/render"
	"github.com/PyWorldGeo/chatroomproject2/internal/service"
	"github.com/PyWorldGeo/chatroomproject2/internal/validation"
)

var errInvalidID = errors.New("invalid id")

// roomForm はルーム作成・更新フォームです
type roomForm struct {
	Topic       string `form:"topic" validate:"required,max=200"`
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description"`
}

func parseRoomForm(r *http.Request) roomForm {
	return roomForm{
		Topic:       strings.TrimSpace(r.PostFormValue("topic")),
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: r.PostFormValue("description"),
	}
}

func (f roomForm) input() service.RoomInput {
	return service.RoomInput{Topic: f.Topic, Name: f.Name, Description: f.Description}
}

// registerForm はユーザー登録フォームです
type registerForm struct {
	Name      string `form:"name" validate:"max=200"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func parseRegisterForm(r *http.Request) registerForm {
	return registerForm{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
}

func (f registerForm) fields() []render.Field {
	return []render.Field{
		{Name: "name", Label: "Name", Type: "text", Value: f.Name},
		{Name: "username", Label: "Username", Type: "text", Value: f.Username},
		{Name: "email", Label: "Email", Type: "email", Value: f.Email},
		{Name: "password1", Label: "Password", Type: "password"},
		{Name: "password2", Label: "Password confirmation", Type: "password"},
	}
}

// userForm はユーザー情報更新フォームです（アバターは別途検証）
type userForm struct {
	Name     string `form:"name" validate:"max=200"`
	Username string `form:"username" validate:"required,max=150,username"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Bio      string `form:"bio"`
}

func userFormFrom(u *models.User) userForm {
	return userForm{Name: u.Name, Username: u.Username, Email: u.Email, Bio: u.Bio}
}

func parseUserForm(r *http.Request) userForm {
	return userForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Bio:      r.PostFormValue("bio"),
	}
}

func (f userForm) fields() []render.Field {
	return []render.Field{
		{Name: "name", Label: "Name", Type: "text", Value: f.Name},
		{Name: "username", Label: "Username", Type: "text", Value: f.Username},
		{Name: "email", Label: "Email", Type: "email", Value: f.Email},
		{Name: "bio", Label: "Bio", Type: "textarea", Value: f.Bio},
	}
}

// addTakenError は一意制約違反をフィールドエラーに変換します。該当しなければfalse
func addTakenError(errs validation.FieldErrors, err error) bool {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		errs.Add("username", "A user with that username already exists.")
	case errors.Is(err, service.ErrEmailTaken):
		errs.Add("email", "User with this Email already exists.")
	default:
		return false
	}
	return true
}
