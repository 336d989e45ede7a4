package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/user"
)

const contextObjectKey = "object"

// roleMiddleware lets through authenticated users holding one of the roles.
func roleMiddleware(svc user.ServiceInterface, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.Principal().HasRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return roleMiddleware(svc, user.RoleAdmin)
}

// ctxUserOrAdminMiddleware loads the user of the ":id" path param into the context
// when the caller is that user or an admin.
func ctxUserOrAdminMiddleware(svc user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			id := ctx.Param("id")
			if id != ctxUsr.ID && !ctxUsr.IsAdmin() {
				return errHttpForbidden
			}
			usr, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set(contextObjectKey, usr)
			return next(ctx)
		}
	}
}
