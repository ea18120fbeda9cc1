package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
	"github.com/shulehub/shule/core/user"
)

type userApi struct {
	opts *Options
}

func registerUserAPI(g *echo.Group, auth echo.MiddlewareFunc, opts *Options) {
	api := userApi{opts: opts}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/verify", api.verify)
	ug.POST("/resend-verification", api.resendVerification)
	ug.POST("/login", api.login)
	ug.POST("/token/refresh", api.refreshToken)
	ug.POST("/forgot-password", api.forgotPassword)
	ug.POST("/reset-password", api.resetPassword)

	// authed endpoints
	ag := ug.Group("", auth)
	ag.POST("/logout", api.logout)
	ag.GET("/profile", api.profile)
	ag.PUT("/profile", api.updateProfile)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.opts.UserSvc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully. Please check your email for the verification code.",
		"user":    usr,
	})
}

func (api *userApi) verify(ctx echo.Context) error {
	var data user.VerifyEmail
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyEmail")
	}

	usr, err := api.opts.UserSvc.VerifyEmail(data)
	if err != nil {
		return errors.Wrap(err, "verifying email")
	}
	tokens, err := GenerateTokenPair(api.opts.Conf, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message": "Email verified successfully. You can now create your school.",
		"user_id": usr.ID,
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

func (api *userApi) resendVerification(ctx echo.Context) error {
	var data user.EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}

	if err := api.opts.UserSvc.ResendVerification(data); err != nil {
		return errors.Wrap(err, "resending verification")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "A new verification code has been sent to your email."})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	usr, err := api.opts.UserSvc.Authenticate(data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrAuthenticationFailed:
			return errAuthenticationFailed
		case user.ErrNotVerified:
			return errNotVerified
		case user.ErrAccountDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}

	tokens, err := GenerateTokenPair(api.opts.Conf, usr)
	if err != nil {
		return err
	}
	hasSchool := false
	if _, err = api.opts.SchoolSvc.GetByAdminID(usr.ID); err == nil {
		hasSchool = true
	} else if errors.Cause(err) != school.ErrNotFound {
		return errors.Wrap(err, "checking school ownership")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"user": echo.Map{
			"id":         usr.ID,
			"email":      usr.Email,
			"full_name":  usr.FullName,
			"role":       usr.Role,
			"has_school": hasSchool,
		},
	})
}

func (api *userApi) logout(ctx echo.Context) error {
	var data refreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to refreshRequest")
	}
	if err := revokeRefreshToken(api.opts.Conf, api.opts.UserSvc, data.Refresh); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	var data refreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to refreshRequest")
	}
	access, err := refreshAccessToken(api.opts.Conf, api.opts.UserSvc, data.Refresh)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"access": access})
}

func (api *userApi) forgotPassword(ctx echo.Context) error {
	var data user.EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := api.opts.UserSvc.RequestPasswordReset(data); err != nil {
		return errors.Wrap(err, "requesting password reset")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "A password reset code has been sent to your email."})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := api.opts.UserSvc.ResetPassword(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Password has been reset successfully."})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	usr, err = api.opts.UserSvc.UpdateProfile(usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}
