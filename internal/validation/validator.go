// Package validation はgo-playground/validatorによるフォーム入力の検証を提供します
//
//	type RoomForm struct {
//	    Name string `form:"name" validate:"required,max=200"`
//	}
//	if errs := validation.Validate(&form); errs != nil {
//	    // errs["name"] -> ["This field is required."]
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// usernamePattern は英数字と @ . + - _ のみを許可します
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// GetValidator はシングルトンのバリデーターを返します
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// エラーのキーをフォームのフィールド名にする
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// FieldErrors はフィールド名ごとのエラーメッセージです
type FieldErrors map[string][]string

// Add はフィールドにエラーメッセージを追加します
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// First はフィールドの最初のエラーメッセージを返します（テンプレート用）
func (fe FieldErrors) First(field string) string {
	if msgs := fe[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msgs := range fe {
		parts = append(parts, field+": "+strings.Join(msgs, " "))
	}
	return strings.Join(parts, "; ")
}

// Validate は構造体を検証します。問題がなければnilを返します
func Validate(s any) FieldErrors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	fe := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("__all__", err.Error())
		return fe
	}
	for _, v := range verrs {
		fe.Add(v.Field(), message(v))
	}
	return fe
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}
