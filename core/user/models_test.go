package user

import (
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/validator/v10"

	"github.com/shulehub/shule/core"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator)
	return validate
}

func TestUser_SetCheckPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("S3cret!pass"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("S3cret!pass"); err != nil {
		t.Errorf("CheckPassword() rejected the correct password: %v", err)
	}
	if err := usr.CheckPassword("wrong"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}

func TestEmailVerification_IsValid(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		v    EmailVerification
		want bool
	}{
		{name: "unused and unexpired", v: EmailVerification{ExpiresAt: now.Add(time.Hour)}, want: true},
		{name: "used", v: EmailVerification{Used: true, ExpiresAt: now.Add(time.Hour)}, want: false},
		{name: "expired", v: EmailVerification{ExpiresAt: now.Add(-time.Second)}, want: false},
		{name: "used and expired", v: EmailVerification{Used: true, ExpiresAt: now.Add(-time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(now); got != tt.want {
				t.Errorf("IsValid() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate := newTestValidator()

	valid := func() NewUser {
		return NewUser{
			Email:           "alice@x.com",
			FullName:        "Alice Doe",
			Password:        "S3cret!pass",
			PasswordConfirm: "S3cret!pass",
			Role:            RoleAdmin,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*NewUser)
		wantErr bool
	}{
		{name: "valid", mutate: func(nu *NewUser) {}, wantErr: false},
		{name: "defaults role to admin", mutate: func(nu *NewUser) { nu.Role = "" }, wantErr: false},
		{name: "missing email", mutate: func(nu *NewUser) { nu.Email = "" }, wantErr: true},
		{name: "bad email", mutate: func(nu *NewUser) { nu.Email = "nope" }, wantErr: true},
		{name: "bad role", mutate: func(nu *NewUser) { nu.Role = "principal" }, wantErr: true},
		{name: "password mismatch", mutate: func(nu *NewUser) { nu.PasswordConfirm = "Other1!pass" }, wantErr: true},
		{name: "no uppercase", mutate: func(nu *NewUser) { nu.Password = "s3cret!pass"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "no digit", mutate: func(nu *NewUser) { nu.Password = "Secret!pass"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "no special char", mutate: func(nu *NewUser) { nu.Password = "S3cretpass"; nu.PasswordConfirm = nu.Password }, wantErr: true},
		{name: "too short", mutate: func(nu *NewUser) { nu.Password = "S3c!p"; nu.PasswordConfirm = nu.Password }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			if err := nu.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("email is lowered and trimmed", func(t *testing.T) {
		nu := valid()
		nu.Email = "  Alice@X.com "
		if err := nu.Validate(validate); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
		if nu.Email != "alice@x.com" {
			t.Errorf("Email = %q; want %q", nu.Email, "alice@x.com")
		}
	})
}
