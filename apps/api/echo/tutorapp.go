package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
)

type tutorAppApi struct {
	svc      *tutorapp.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerTutorAppAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *tutorapp.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := tutorAppApi{svc: svc, usrSvc: usrSvc, validate: validate}

	tg := g.Group("/tutors", jwt)
	tg.POST("/apply", api.apply)
	tg.GET("/pending", api.pending, adminMiddleware(usrSvc))
	tg.PATCH("/approve/:id", api.decide, adminMiddleware(usrSvc))
}

func (api *tutorAppApi) apply(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data tutorapp.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Apply(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "applying")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *tutorAppApi) pending(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	apps, err := api.svc.Pending(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing pending applications")
	}
	if apps == nil {
		apps = []tutorapp.PendingApplication{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *tutorAppApi) decide(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data tutorapp.Decision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Decide(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "deciding on application")
	}
	return ctx.JSON(http.StatusOK, a)
}
