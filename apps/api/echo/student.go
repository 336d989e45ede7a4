package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/student"
	"github.com/kipkoec77/Edureach/core/user"
)

type studentApi struct {
	svc    *student.Service
	usrSvc user.ServiceInterface
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, usrSvc user.ServiceInterface) {
	api := studentApi{svc: svc, usrSvc: usrSvc}

	sg := g.Group("/student", jwt, roleMiddleware(usrSvc, user.RoleStudent))
	sg.GET("/courses", api.courses)
	sg.GET("/assignments", api.assignments)
	sg.GET("/notes", api.notes)
	sg.GET("/attendance", api.attendance)
	sg.GET("/progress", api.progress)
}

func (api *studentApi) courses(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	courses, err := api.svc.Courses(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "courses": courses})
}

func (api *studentApi) assignments(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	assignments, err := api.svc.Assignments(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	if assignments == nil {
		assignments = []student.Assignment{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "assignments": assignments})
}

func (api *studentApi) notes(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	notes, err := api.svc.Notes(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing notes")
	}
	if notes == nil {
		notes = []student.Note{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "notes": notes})
}

func (api *studentApi) attendance(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	records, err := api.svc.Attendance(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	if records == nil {
		records = []student.Attendance{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "attendance": records})
}

func (api *studentApi) progress(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	progress, err := api.svc.Progress(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	if progress == nil {
		progress = []student.Progress{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "progress": progress})
}
