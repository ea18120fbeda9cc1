package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	contextUserKey     = "user"
	contextIdentityKey = "identity"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (c Claims) userID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parsing token subject")
	}
	return uint(id), nil
}

// TokenPair is an access/refresh token couple issued on login and verify.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func newClaims(conf *core.Config, usr user.User, tokenType string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.FormatUint(uint64(usr.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		TokenType: tokenType,
		Email:     usr.Email,
		FullName:  usr.FullName,
		Role:      usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	return ss, errors.Wrap(err, "signing token")
}

// GenerateTokenPair issues a fresh access/refresh couple for the user.
func GenerateTokenPair(conf *core.Config, usr user.User) (TokenPair, error) {
	access, err := GenerateToken(conf, newClaims(conf, usr, tokenTypeAccess, conf.Server.JWTExpirationDelta))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := GenerateToken(conf, newClaims(conf, usr, tokenTypeRefresh, conf.Server.JWTRefreshExpirationDelta))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func parseToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

// authMiddleware authenticates requests via a Bearer access token and loads
// the user onto the context.
func authMiddleware(conf *core.Config, svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return errUnauthorized
			}
			claims, err := parseToken(conf, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return err
			}
			if claims.TokenType != tokenTypeAccess {
				return errUnauthorized
			}
			id, err := claims.userID()
			if err != nil {
				return errUnauthorized
			}
			usr, err := svc.GetByID(id)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// refreshAccessToken validates a refresh token and issues a new access token.
func refreshAccessToken(conf *core.Config, svc *user.Service, refresh string) (string, error) {
	claims, err := parseToken(conf, refresh)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", errUnauthorized
	}
	revoked, err := svc.IsRefreshTokenRevoked(claims.ID)
	if err != nil {
		return "", errors.Wrap(err, "checking token revocation")
	}
	if revoked {
		return "", errUnauthorized
	}
	id, err := claims.userID()
	if err != nil {
		return "", errUnauthorized
	}
	usr, err := svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return "", errAccountDeactivated
	}
	return GenerateToken(conf, newClaims(conf, usr, tokenTypeAccess, conf.Server.JWTExpirationDelta))
}

// revokeRefreshToken blacklists the refresh token's JTI (logout).
func revokeRefreshToken(conf *core.Config, svc *user.Service, refresh string) error {
	claims, err := parseToken(conf, refresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid refresh token")
	}
	if claims.TokenType != tokenTypeRefresh {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid refresh token")
	}
	id, err := claims.userID()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid refresh token")
	}
	return errors.Wrap(svc.RevokeRefreshToken(claims.ID, id, claims.ExpiresAt.Time), "revoking refresh token")
}
