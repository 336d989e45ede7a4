package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/user"
)

const (
	tokenContextKey = "userToken"
	contextUserKey  = "user"

	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// newJWTConfig returns the JWT auth middleware config. Refresh tokens are signed with
// another key, so they never pass as access tokens.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Type  string    `json:"typ"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
	Role  user.Role `json:"role,omitempty"`
}

func newClaims(conf *core.Config, usr user.User, typ string, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Type:  typ,
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role,
	}
}

// GetUserClaims returns the access token claims of usr.
func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	return newClaims(conf, usr, AccessTokenType, conf.Server.JWTExpirationDelta)
}

// GetRefreshClaims returns the refresh token claims of usr.
func GetRefreshClaims(conf *core.Config, usr user.User) *Claims {
	return newClaims(conf, usr, RefreshTokenType, conf.Server.JWTRefreshExpirationDelta)
}

func signingKey(conf *core.Config, typ string) []byte {
	if typ == RefreshTokenType {
		return []byte(conf.RefreshSecretKey)
	}
	return []byte(conf.SecretKey)
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString(signingKey(conf, claims.Type))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func generateTokenPair(conf *core.Config, usr user.User) (tokenPair, error) {
	access, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		return tokenPair{}, errors.Wrap(err, "generating access token")
	}
	refresh, err := GenerateToken(conf, GetRefreshClaims(conf, usr))
	if err != nil {
		return tokenPair{}, errors.Wrap(err, "generating refresh token")
	}
	return tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// parseRefreshToken verifies a refresh token string and returns its claims.
func parseRefreshToken(conf *core.Config, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return signingKey(conf, RefreshTokenType), nil
	})
	if err != nil || !token.Valid || claims.Type != RefreshTokenType {
		return nil, errInvalidRefreshToken
	}
	return claims, nil
}

func authenticate(ctx context.Context, email, pwd string, svc user.ServiceInterface) (user.User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// refreshAccessToken returns a new access token for a valid refresh token of an active user.
func refreshAccessToken(ctx context.Context, conf *core.Config, svc user.ServiceInterface, refreshToken string) (string, error) {
	claims, err := parseRefreshToken(conf, refreshToken)
	if err != nil {
		return "", err
	}
	usr, err := svc.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errInvalidRefreshToken
		}
		return "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return "", errInvalidRefreshToken
	}
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Type == AccessTokenType {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextUser loads the authenticated user once per request.
// Deleted accounts are unauthenticated, deactivated ones forbidden.
func getContextUser(ctx echo.Context, svc user.ServiceInterface) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func getContextPrincipal(ctx echo.Context, svc user.ServiceInterface) (user.Principal, error) {
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return user.Principal{}, err
	}
	return usr.Principal(), nil
}
