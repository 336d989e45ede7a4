package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/user"
)

type questionApi struct {
	svc      *question.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerQuestionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *question.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := questionApi{svc: svc, usrSvc: usrSvc, validate: validate}

	qg := g.Group("/questions", jwt)
	qg.POST("", api.ask, roleMiddleware(usrSvc, user.RoleStudent))
	qg.GET("/:courseId", api.list)
	qg.PATCH("/answer/:id", api.answer, roleMiddleware(usrSvc, user.RoleTutor))
}

func (api *questionApi) ask(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data question.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Ask(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "asking question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) list(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	qs, err := api.svc.List(ctx.Request().Context(), p, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing questions")
	}
	if qs == nil {
		qs = []question.Question{}
	}
	return ctx.JSON(http.StatusOK, qs)
}

func (api *questionApi) answer(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data question.NewAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Answer(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "answering question")
	}
	return ctx.JSON(http.StatusOK, q)
}
