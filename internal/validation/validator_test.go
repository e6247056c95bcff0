package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username  string `form:"username" validate:"required,max=10,username"`
	Email     string `form:"email" validate:"required,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func TestValidate_OK(t *testing.T) {
	errs := Validate(&signup{Username: "alice", Email: "a@example.com", Password1: "longenough", Password2: "longenough"})
	assert.Nil(t, errs)
}

func TestValidate_FieldErrors(t *testing.T) {
	errs := Validate(&signup{Username: "bad name!", Email: "nope", Password1: "short", Password2: "other"})
	require.NotNil(t, errs)

	assert.Contains(t, errs.First("username"), "valid username")
	assert.Equal(t, "Enter a valid email address.", errs.First("email"))
	assert.Equal(t, "Ensure this value has at least 8 characters.", errs.First("password1"))
	assert.Equal(t, "The two password fields didn't match.", errs.First("password2"))
	assert.Empty(t, errs.First("missing"))
	assert.NotEmpty(t, errs.Error())
}

func TestValidate_Required(t *testing.T) {
	errs := Validate(&signup{})
	require.NotNil(t, errs)
	for _, field := range []string{"username", "email", "password1", "password2"} {
		assert.Equal(t, "This field is required.", errs.First(field), field)
	}
}

func TestFieldErrors_Add(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("username", "taken")
	fe.Add("username", "again")
	assert.Equal(t, []string{"taken", "again"}, fe["username"])
	assert.Equal(t, "taken", fe.First("username"))
}
