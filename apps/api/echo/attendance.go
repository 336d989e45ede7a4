package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/user"
)

type attendanceApi struct {
	svc    *attendance.Service
	usrSvc user.ServiceInterface
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, usrSvc user.ServiceInterface) {
	api := attendanceApi{svc: svc, usrSvc: usrSvc}

	ag := g.Group("/attendance", jwt)
	ag.POST("/create/:courseId", api.create)
	ag.POST("/mark/:attendanceId", api.mark)
	ag.PATCH("/close/:attendanceId", api.close)
	ag.GET("/course/:courseId", api.listForCourse)
}

func (api *attendanceApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	r, err := api.svc.CreateSession(ctx.Request().Context(), p, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "creating attendance session")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "attendance": r})
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	res, err := api.svc.MarkPresent(ctx.Request().Context(), p, ctx.Param("attendanceId"))
	if err != nil {
		return errors.Wrap(err, "marking presence")
	}
	resp := echo.Map{"success": true, "attendance": res.Record, "alreadyMarked": res.AlreadyMarked}
	if res.AlreadyMarked {
		resp["msg"] = "Already marked present"
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *attendanceApi) close(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	r, err := api.svc.CloseSession(ctx.Request().Context(), p, ctx.Param("attendanceId"))
	if err != nil {
		return errors.Wrap(err, "closing attendance session")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "attendance": r})
}

func (api *attendanceApi) listForCourse(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	records, err := api.svc.ListForCourse(ctx.Request().Context(), p, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing attendance sessions")
	}
	if records == nil {
		records = []attendance.View{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "records": records})
}
