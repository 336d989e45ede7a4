package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/user"
)

type courseApi struct {
	svc         *course.Service
	discussions *discussion.Service
	usrSvc      user.ServiceInterface
	validate    *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	discussions *discussion.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:         svc,
		discussions: discussions,
		usrSvc:      usrSvc,
		validate:    validate,
	}

	cg := g.Group("/courses")

	// un-authed endpoints
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// authed endpoints
	cg.POST("", api.create, jwt)
	cg.PUT("/:id", api.update, jwt)
	cg.DELETE("/:id", api.destroy, jwt)
	cg.POST("/:id/enroll", api.enroll, jwt)
	cg.GET("/:id/students", api.roster, jwt)

	cg.POST("/:id/notes", api.addNote, jwt)
	cg.DELETE("/:id/notes/:noteId", api.deleteNote, jwt)

	cg.POST("/:id/assignments", api.addAssignment, jwt)
	cg.PUT("/:id/assignments/:assignmentId", api.updateAssignment, jwt)
	cg.DELETE("/:id/assignments/:assignmentId", api.deleteAssignment, jwt)

	cg.POST("/:id/announcements", api.addAnnouncement, jwt)
	cg.GET("/:id/announcements", api.announcements, jwt)
	cg.PUT("/:id/announcements/:announcementId", api.updateAnnouncement, jwt)
	cg.DELETE("/:id/announcements/:announcementId", api.deleteAnnouncement, jwt)

	cg.GET("/:id/discussions", api.messages, jwt)
	cg.POST("/:id/discussions", api.postMessage, jwt)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context(), course.QueryFilter{OwnerID: ctx.QueryParam("tutor_id")})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "courses": courses})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": c})
}

func (api *courseApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "course": c})
}

func (api *courseApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": c})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (api *courseApi) enroll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if _, err := api.svc.Enroll(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "enrolled": true})
}

type rosterEntry struct {
	course.Enrollment
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (api *courseApi) roster(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.Roster(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	users, err := api.usrSvc.GetByIDs(ctx.Request().Context(), ids...)
	if err != nil {
		return errors.Wrap(err, "finding students")
	}
	byID := make(map[string]user.User, len(users))
	for _, usr := range users {
		byID[usr.ID] = usr
	}

	students := make([]rosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := rosterEntry{Enrollment: e}
		if usr, ok := byID[e.StudentID]; ok {
			entry.Name = usr.Name
			entry.Email = usr.Email
		}
		students = append(students, entry)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "students": students})
}

func (api *courseApi) addNote(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	up, closeUpload, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeUpload()

	n, err := api.svc.AddNote(ctx.Request().Context(), p, ctx.Param("id"), up)
	if err != nil {
		return errors.Wrap(err, "adding note")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "note": n})
}

func (api *courseApi) deleteNote(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteNote(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("noteId")); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Msg: "Note deleted"})
}

func (api *courseApi) addAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	form, err := bindAssignmentForm(ctx)
	if err != nil {
		return err
	}
	data, err := form.newAssignment()
	if err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	up, closeUpload, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeUpload()

	a, err := api.svc.AddAssignment(ctx.Request().Context(), p, ctx.Param("id"), data, up)
	if err != nil {
		return errors.Wrap(err, "adding assignment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "assignment": a})
}

func (api *courseApi) updateAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	form, err := bindAssignmentForm(ctx)
	if err != nil {
		return err
	}
	data, err := form.updateAssignment()
	if err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	up, closeUpload, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer closeUpload()

	a, err := api.svc.UpdateAssignment(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("assignmentId"), data, up)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "assignment": a})
}

func (api *courseApi) deleteAssignment(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("assignmentId")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Msg: "Assignment deleted"})
}

func (api *courseApi) addAnnouncement(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data course.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.AddAnnouncement(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding announcement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "announcement": a})
}

func (api *courseApi) announcements(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	list, err := api.svc.Announcements(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	if list == nil {
		list = []course.Announcement{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "announcements": list})
}

func (api *courseApi) updateAnnouncement(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data course.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.UpdateAnnouncement(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("announcementId"), data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "announcement": a})
}

func (api *courseApi) deleteAnnouncement(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAnnouncement(ctx.Request().Context(), p, ctx.Param("id"), ctx.Param("announcementId")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Msg: "Announcement deleted"})
}

func (api *courseApi) messages(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	msgs, err := api.discussions.List(ctx.Request().Context(), p, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	if msgs == nil {
		msgs = []discussion.Message{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "messages": msgs})
}

func (api *courseApi) postMessage(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	var data discussion.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.discussions.Post(ctx.Request().Context(), p, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "posting message")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": m})
}
