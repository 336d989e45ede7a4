package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidRefreshToken  = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		resp := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp["msg"] = fmt.Sprint(origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp["msg"] = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for i, vErr := range origErr {
				msg := vErr.Translate(translator)
				if i == 0 {
					resp["msg"] = msg
				}
				fldErrs[vErr.Field()] = msg
			}
			code = http.StatusBadRequest
			resp["fields"] = fldErrs
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				resp["fields"] = fldErrs
			}
			code = http.StatusBadRequest
			resp["msg"] = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp["msg"] = origErr.Error()
		case *core.ForbiddenError:
			code = http.StatusForbidden
			resp["msg"] = origErr.Error()
		case *core.LockedError:
			code = http.StatusForbidden
			resp["msg"] = origErr.Error()
			resp["locked"] = true
		case *core.StateError:
			code = http.StatusBadRequest
			resp["msg"] = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			resp["msg"] = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			resp["msg"] = msg
			if ctx.Echo().Debug {
				resp["msg"] = err.Error()
			}
			logger.Error(msg, errors.Wrap(err, msg), contextLogUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// contextLogUser returns the authenticated user for error reports, without hitting the DB.
func contextLogUser(ctx echo.Context) user.User {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr
	}
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.Subject
		usr.Name = claims.Name
		usr.Email = claims.Email
	}
	return usr
}
