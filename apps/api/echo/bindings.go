package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
)

var (
	orderingParam = "ordering"
	uploadField   = "file"

	dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindUpload opens the uploaded "file" of a multipart request. A request without
// a file yields a nil Upload. The returned func closes the file.
func bindUpload(ctx echo.Context) (*core.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(ctx) {
		return nil, noop, nil
	}

	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, noop, nil
		}
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "malformed multipart form").SetInternal(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, errors.Wrap(err, "opening uploaded file")
	}

	up := &core.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}
	return up, func() { _ = f.Close() }, nil
}

// assignmentForm is an assignment sent either as JSON or as multipart form fields.
type assignmentForm struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

func bindAssignmentForm(ctx echo.Context) (assignmentForm, error) {
	var form assignmentForm
	if !isMultipart(ctx) {
		if err := ctx.Bind(&form); err != nil {
			return form, errors.Wrap(err, "binding to assignmentForm")
		}
		return form, nil
	}

	mf, err := ctx.MultipartForm()
	if err != nil {
		return form, echo.NewHTTPError(http.StatusBadRequest, "malformed multipart form").SetInternal(err)
	}
	value := func(key string) *string {
		if v, ok := mf.Value[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	form.Title = value("title")
	form.Description = value("description")
	form.DueDate = value("due_date")
	return form, nil
}

func (form assignmentForm) dueDate() (*time.Time, error) {
	if form.DueDate == nil || strings.TrimSpace(*form.DueDate) == "" {
		return nil, nil
	}
	val := strings.TrimSpace(*form.DueDate)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, nil
		}
	}
	return nil, core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "invalid date"})
}

func (form assignmentForm) newAssignment() (course.NewAssignment, error) {
	due, err := form.dueDate()
	if err != nil {
		return course.NewAssignment{}, err
	}
	na := course.NewAssignment{DueDate: due}
	if form.Title != nil {
		na.Title = *form.Title
	}
	if form.Description != nil {
		na.Description = *form.Description
	}
	return na, nil
}

func (form assignmentForm) updateAssignment() (course.UpdateAssignment, error) {
	due, err := form.dueDate()
	if err != nil {
		return course.UpdateAssignment{}, err
	}
	return course.UpdateAssignment{Title: form.Title, Description: form.Description, DueDate: due}, nil
}
