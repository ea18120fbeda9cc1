package user

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/shulehub/shule/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleStaff   = "staff"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent, RoleStaff}

// RegisterValidators registers the user-domain validation tags.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterOneOfValidation(validate, translator, "role", "invalid role", AllRoles)
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string    `gorm:"size:255;not null" json:"full_name"`
	Role         string    `gorm:"size:10;not null;default:admin" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"-"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	LastLogin    time.Time `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// EmailVerification is a one-time email verification code issued at
// registration or on resend.
type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	OTP       string    `gorm:"size:6;not null" json:"-"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid reports whether the code may still be consumed: unused and unexpired.
func (v EmailVerification) IsValid(now time.Time) bool {
	return !v.Used && now.Before(v.ExpiresAt)
}

// PasswordReset is a one-time password reset code.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	OTP       string    `gorm:"size:6;not null" json:"-"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (r PasswordReset) IsValid(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

// RevokedToken records a refresh token JTI invalidated by logout.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"uniqueIndex;size:36;not null" json:"jti"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FullName = core.CleanString(nu.FullName)
	if nu.Role == "" {
		nu.Role = RoleAdmin
	}
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return validatePasswordStrength(nu.Password)
}

// validatePasswordStrength enforces at least one uppercase letter, one
// lowercase letter, one digit and one special character.
func validatePasswordStrength(pwd string) error {
	checks := []struct {
		ok  func(rune) bool
		msg string
	}{
		{func(r rune) bool { return r >= 'A' && r <= 'Z' }, "password must contain at least one uppercase letter"},
		{func(r rune) bool { return r >= 'a' && r <= 'z' }, "password must contain at least one lowercase letter"},
		{func(r rune) bool { return r >= '0' && r <= '9' }, "password must contain at least one number"},
		{func(r rune) bool {
			return strings.ContainsRune("!@#$%^&*()-_=+[]{}|;:'\",.<>/?`~", r)
		}, "password must contain at least one special character"},
	}
	for _, check := range checks {
		var found bool
		for _, r := range pwd {
			if check.ok(r) {
				found = true
				break
			}
		}
		if !found {
			return core.NewValidationError(nil, core.FieldError{Field: "password", Error: check.msg})
		}
	}
	return nil
}

// VerifyEmail is the payload consuming a verification OTP.
type VerifyEmail struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

func (ve *VerifyEmail) Validate(validate *validator.Validate) error {
	ve.Email = core.CleanString(ve.Email, true /* lower */)
	ve.OTP = core.CleanString(ve.OTP)
	return validate.Struct(ve)
}

// EmailRequest is the payload for resend-verification and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (er *EmailRequest) Validate(validate *validator.Validate) error {
	er.Email = core.CleanString(er.Email, true /* lower */)
	return validate.Struct(er)
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate(validate *validator.Validate) error {
	l.Email = core.CleanString(l.Email, true /* lower */)
	return validate.Struct(l)
}

// ResetPassword is the payload consuming a password reset OTP.
type ResetPassword struct {
	Email           string `json:"email" validate:"required,email"`
	OTP             string `json:"otp" validate:"required,len=6"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
	PasswordConfirm string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	rp.OTP = core.CleanString(rp.OTP)
	if err := validate.Struct(rp); err != nil {
		return err
	}
	return validatePasswordStrength(rp.NewPassword)
}

// UpdateUser defines what a user may change on their own profile.
type UpdateUser struct {
	FullName string `json:"full_name"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	name := core.CleanString(uu.FullName)
	if name != "" {
		uu.FullName = name
	} else {
		uu.FullName = origUsr.FullName
	}
	return validate.Struct(uu)
}
