package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/student"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       user.ServiceInterface
		CourseSvc     *course.Service
		SubmissionSvc *submission.Service
		AttendanceSvc *attendance.Service
		DiscussionSvc *discussion.Service
		StudentSvc    *student.Service
		TutorAppSvc   *tutorapp.Service
		QuestionSvc   *question.Service
	}

	Server struct {
		conf     *core.Config
		app      *echo.Echo
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		conf:     deps.Conf,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup(deps)
	return s
}

func (s *Server) setup(deps ServerDeps) {
	conf := deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(conf.Server.AllowedOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowedOrigins}))
	}
	if conf.Server.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))
	}

	// uploaded files are only served by the API when they live on the local disk
	if conf.Uploads.Driver == "" || conf.Uploads.Driver == "disk" {
		s.app.Static(conf.Uploads.URLPrefix, conf.Uploads.Dir)
	}

	s.app.GET("/", home)

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(api, jwt, deps.Conf, deps.UserSvc, deps.StudentSvc, deps.Validate)
	registerTutorAppAPI(api, jwt, deps.TutorAppSvc, deps.UserSvc, deps.Validate)
	registerCourseAPI(api, jwt, deps.CourseSvc, deps.DiscussionSvc, deps.UserSvc, deps.Validate)
	registerSubmissionAPI(api, jwt, deps.SubmissionSvc, deps.UserSvc, deps.Validate)
	registerAttendanceAPI(api, jwt, deps.AttendanceSvc, deps.UserSvc)
	registerStudentAPI(api, jwt, deps.StudentSvc, deps.UserSvc)
	registerQuestionAPI(api, jwt, deps.QuestionSvc, deps.UserSvc, deps.Validate)
}

func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "msg": "Edureach API is running"})
}
