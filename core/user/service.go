package user

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/shulehub/shule/core"
)

var (
	// NowFunc returns the current time; mockable in tests.
	NowFunc = time.Now

	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrNotVerified          = errors.New("email not verified")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrAlreadyVerified      = errors.New("this email is already verified")
	ErrOTPNotFound          = errors.New("otp not found")
	ErrTokenRevoked         = errors.New("token revoked")

	errInvalidOTP   = "invalid verification code"
	errExpiredOTP   = "verification code has expired"
	errUnknownEmail = "no user found with this email address"
)

type (
	Repository interface {
		CreateUser(usr User) (User, error)
		GetUserByID(id uint) (User, error)
		GetUserByEmail(email string) (User, error)
		UpdateUser(usr User) (User, error)
		SetLastLogin(id uint, t time.Time) error
		DeleteUsersByID(ids ...uint) error

		CreateVerification(v EmailVerification) (EmailVerification, error)
		// LatestVerification returns the newest unused verification matching
		// (userID, otp); ErrOTPNotFound if none exists.
		LatestVerification(userID uint, otp string) (EmailVerification, error)
		InvalidateVerifications(userID uint) error
		// ConsumeVerification atomically marks the code used and the user verified.
		ConsumeVerification(verificationID, userID uint) error

		CreatePasswordReset(r PasswordReset) (PasswordReset, error)
		LatestPasswordReset(userID uint, otp string) (PasswordReset, error)
		InvalidatePasswordResets(userID uint) error
		// ConsumePasswordReset atomically marks the code used and overwrites the password hash.
		ConsumePasswordReset(resetID, userID uint, hash []byte) error

		RevokeToken(rt RevokedToken) error
		IsTokenRevoked(jti string) (bool, error)
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) *Service {
	return &Service{
		conf:     conf,
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

// Register creates a new unverified user and issues a verification OTP.
// The verification email is sent before anything is persisted: an email
// failure aborts the registration entirely.
func (svc *Service) Register(nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if _, err := svc.repo.GetUserByEmail(nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if err != ErrNotFound {
		return User{}, pkgerrors.Wrap(err, "checking email uniqueness")
	}

	otp := core.GenerateOTP(svc.conf.OTPLength)
	if err := svc.mailSvc.SendMessage(verificationEmail(nu.Email, otp)); err != nil {
		return User{}, pkgerrors.Wrap(err, "sending verification email")
	}

	now := NowFunc().UTC()
	usr := User{
		Email:     nu.Email,
		FullName:  nu.FullName,
		Role:      nu.Role,
		IsActive:  true,
		IsStaff:   nu.Role == RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating user")
	}

	_, err = svc.repo.CreateVerification(EmailVerification{
		UserID:    usr.ID,
		OTP:       otp,
		ExpiresAt: now.Add(svc.conf.Server.OTPExpirationDelta),
		CreatedAt: now,
	})
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating verification")
	}
	return usr, nil
}

// VerifyEmail consumes a verification OTP and marks the user verified.
// A consumed or expired code fails with a validation error; it never no-ops.
func (svc *Service) VerifyEmail(ve VerifyEmail) (User, error) {
	if err := ve.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.getByEmailValidated(ve.Email)
	if err != nil {
		return User{}, err
	}

	v, err := svc.repo.LatestVerification(usr.ID, ve.OTP)
	if err != nil {
		if err == ErrOTPNotFound {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "otp", Error: errInvalidOTP})
		}
		return User{}, pkgerrors.Wrap(err, "finding verification")
	}
	if !v.IsValid(NowFunc().UTC()) {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "otp", Error: errExpiredOTP})
	}

	if err := svc.repo.ConsumeVerification(v.ID, usr.ID); err != nil {
		return User{}, pkgerrors.Wrap(err, "consuming verification")
	}
	return svc.repo.GetUserByID(usr.ID)
}

// ResendVerification invalidates all outstanding codes and issues a fresh one
// with a shorter expiry. Previously issued codes become permanently unusable.
func (svc *Service) ResendVerification(er EmailRequest) error {
	if err := er.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.getByEmailValidated(er.Email)
	if err != nil {
		return err
	}
	if usr.IsVerified {
		return core.NewValidationError(ErrAlreadyVerified, core.FieldError{Field: "email", Error: ErrAlreadyVerified.Error()})
	}

	otp := core.GenerateOTP(svc.conf.OTPLength)
	if err := svc.mailSvc.SendMessage(verificationEmail(usr.Email, otp)); err != nil {
		return pkgerrors.Wrap(err, "sending verification email")
	}

	if err := svc.repo.InvalidateVerifications(usr.ID); err != nil {
		return pkgerrors.Wrap(err, "invalidating verifications")
	}
	now := NowFunc().UTC()
	_, err = svc.repo.CreateVerification(EmailVerification{
		UserID:    usr.ID,
		OTP:       otp,
		ExpiresAt: now.Add(svc.conf.Server.OTPResendExpirationDelta),
		CreatedAt: now,
	})
	return pkgerrors.Wrap(err, "creating verification")
}

// Authenticate checks the given credentials and returns the matching user.
func (svc *Service) Authenticate(email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	if !usr.IsVerified {
		return User{}, ErrNotVerified
	}
	if err := svc.repo.SetLastLogin(usr.ID, NowFunc().UTC()); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// RequestPasswordReset issues a password reset OTP, invalidating any
// outstanding reset codes for the user.
func (svc *Service) RequestPasswordReset(er EmailRequest) error {
	if err := er.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.getByEmailValidated(er.Email)
	if err != nil {
		return err
	}

	otp := core.GenerateOTP(svc.conf.OTPLength)
	if err := svc.mailSvc.SendMessage(passwordResetEmail(usr.Email, otp)); err != nil {
		return pkgerrors.Wrap(err, "sending password reset email")
	}

	if err := svc.repo.InvalidatePasswordResets(usr.ID); err != nil {
		return pkgerrors.Wrap(err, "invalidating password resets")
	}
	now := NowFunc().UTC()
	_, err = svc.repo.CreatePasswordReset(PasswordReset{
		UserID:    usr.ID,
		OTP:       otp,
		ExpiresAt: now.Add(svc.conf.Server.OTPResendExpirationDelta),
		CreatedAt: now,
	})
	return pkgerrors.Wrap(err, "creating password reset")
}

// ResetPassword consumes a reset OTP and overwrites the password hash in the
// same storage operation.
func (svc *Service) ResetPassword(rp ResetPassword) error {
	if err := rp.Validate(svc.validate); err != nil {
		return err
	}
	usr, err := svc.getByEmailValidated(rp.Email)
	if err != nil {
		return err
	}

	reset, err := svc.repo.LatestPasswordReset(usr.ID, rp.OTP)
	if err != nil {
		if err == ErrOTPNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "otp", Error: errInvalidOTP})
		}
		return pkgerrors.Wrap(err, "finding password reset")
	}
	if !reset.IsValid(NowFunc().UTC()) {
		return core.NewValidationError(nil, core.FieldError{Field: "otp", Error: errExpiredOTP})
	}

	var tmp User
	if err := tmp.SetPassword(rp.NewPassword); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	return pkgerrors.Wrap(svc.repo.ConsumePasswordReset(reset.ID, usr.ID, tmp.PasswordHash), "consuming password reset")
}

func (svc *Service) GetByID(id uint) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) UpdateProfile(id uint, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	if err := uu.Validate(usr, svc.validate); err != nil {
		return User{}, err
	}
	usr.FullName = uu.FullName
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(usr)
}

// RevokeRefreshToken records a refresh token JTI as invalidated (logout).
func (svc *Service) RevokeRefreshToken(jti string, userID uint, expiresAt time.Time) error {
	return svc.repo.RevokeToken(RevokedToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: NowFunc().UTC(),
	})
}

func (svc *Service) IsRefreshTokenRevoked(jti string) (bool, error) {
	return svc.repo.IsTokenRevoked(jti)
}

// CreateSuperuser creates a pre-verified superuser account; used by the admin CLI.
func (svc *Service) CreateSuperuser(email, fullName, pwd string) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Email:       core.CleanString(email, true /* lower */),
		FullName:    core.CleanString(fullName),
		Role:        RoleAdmin,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
		IsVerified:  true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

func (svc *Service) getByEmailValidated(email string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return User{}, core.NewValidationError(ErrNotFound, core.FieldError{Field: "email", Error: errUnknownEmail})
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	return usr, nil
}
