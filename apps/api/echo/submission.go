package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/user"
)

type submissionApi struct {
	svc      *submission.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *submission.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := submissionApi{svc: svc, usrSvc: usrSvc, validate: validate}

	sg := g.Group("/submissions", jwt)
	sg.POST("/:courseId/:assignmentId", api.submit)
	sg.GET("/:courseId/:assignmentId", api.list)
	sg.GET("/:courseId/:assignmentId/me", api.mine)
	sg.GET("/:courseId/:assignmentId/me/history", api.history)
	// the router shares param names per path segment: here :courseId holds the submission id
	sg.PATCH("/:courseId/grade", api.grade)
}

func (api *submissionApi) submit(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	up, closeUpload, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeUpload()

	res, err := api.svc.Submit(ctx.Request().Context(), p, ctx.Param("courseId"), ctx.Param("assignmentId"), up)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "submission": res.Submission, "updated": res.Updated})
}

func (api *submissionApi) list(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	subs, err := api.svc.List(ctx.Request().Context(), p, ctx.Param("courseId"), ctx.Param("assignmentId"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "submissions": subs})
}

func (api *submissionApi) mine(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	sub, err := api.svc.GetMine(ctx.Request().Context(), p, ctx.Param("courseId"), ctx.Param("assignmentId"))
	if err != nil {
		return errors.Wrap(err, "finding submission")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "submission": sub})
}

func (api *submissionApi) history(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	subs, err := api.svc.History(ctx.Request().Context(), p, ctx.Param("courseId"), ctx.Param("assignmentId"))
	if err != nil {
		return errors.Wrap(err, "listing submission history")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "submissions": subs})
}

func (api *submissionApi) grade(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data submission.Grading
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grading")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), p, ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "submission": sub})
}
