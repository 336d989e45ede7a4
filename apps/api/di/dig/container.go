package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/dig"

	echoapi "github.com/kipkoec77/Edureach/apps/api/echo"
	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/student"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/email"
	"github.com/kipkoec77/Edureach/services/events"
	"github.com/kipkoec77/Edureach/services/filestore"
	"github.com/kipkoec77/Edureach/services/logger"
	"github.com/kipkoec77/Edureach/storage/database"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	mongorepos "github.com/kipkoec77/Edureach/storage/database/mongo"
	sqlxrepos "github.com/kipkoec77/Edureach/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Stores holds the open database handles; nil handles are not in use.
type Stores struct {
	Postgres *sqlx.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	InMemory *inmemdb.DB
}

// Close releases every open handle.
func (s Stores) Close(ctx context.Context) error {
	var first error
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			first = errors.Wrap(err, "closing postgres")
		}
	}
	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(ctx); err != nil && first == nil {
			first = errors.Wrap(err, "closing mongo")
		}
	}
	return first
}

type repositories struct {
	dig.Out

	Users       user.Repository
	Courses     course.Repository
	Submissions submission.Repository
	Attendance  attendance.Repository
	Discussions discussion.Repository
	Apps        tutorapp.Repository
	Questions   question.Repository
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStores opens the account store (postgres) and the document store (mongo),
// or a single in-memory store when configured so.
func newStores(conf *core.Config, loggerParam DBLoggerParam) Stores {
	if conf.Database.InMemory {
		return Stores{InMemory: inmemdb.Open()}
	}

	setUp := func() (Stores, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return Stores{}, err
		}
		db, err := database.OpenPostgres(conf)
		if err != nil {
			return Stores{}, err
		}
		if err = database.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return Stores{}, err
		}

		ctx := context.Background()
		client, mdb, err := database.ConnectMongo(ctx, conf)
		if err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		if err = database.EnsureIndexes(ctx, mdb); err != nil {
			_ = db.Close()
			_ = client.Disconnect(ctx)
			return Stores{}, err
		}
		return Stores{Postgres: db, Mongo: client, MongoDB: mdb}, nil
	}

	stores, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up databases: %v", err), err)
	}
	return stores
}

func newRepositories(conf *core.Config, stores Stores) repositories {
	if stores.InMemory != nil {
		db := stores.InMemory
		return repositories{
			Users:       inmemdb.NewUserRepository(db),
			Courses:     inmemdb.NewCourseRepository(db),
			Submissions: inmemdb.NewSubmissionRepository(db),
			Attendance:  inmemdb.NewAttendanceRepository(db),
			Discussions: inmemdb.NewDiscussionRepository(db),
			Apps:        inmemdb.NewApplicationRepository(db),
			Questions:   inmemdb.NewQuestionRepository(db),
		}
	}

	mdb := stores.MongoDB
	return repositories{
		Users:       sqlxrepos.NewUserRepository(stores.Postgres, conf),
		Courses:     mongorepos.NewCourseRepository(mdb, conf),
		Submissions: mongorepos.NewSubmissionRepository(mdb, conf),
		Attendance:  mongorepos.NewAttendanceRepository(mdb, conf),
		Discussions: mongorepos.NewDiscussionRepository(mdb, conf),
		Apps:        mongorepos.NewApplicationRepository(mdb, conf),
		Questions:   mongorepos.NewQuestionRepository(mdb, conf),
	}
}

func newFileStorage(conf *core.Config, logger core.Logger) core.FileStorage {
	files, err := filestore.New(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
	}
	return files
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newCourseService(repo course.Repository, files core.FileStorage, pub core.EventPublisher, logger core.Logger) *course.Service {
	return course.NewService(repo, files, pub, logger)
}

func newSubmissionService(
	repo submission.Repository,
	courses course.Repository,
	files core.FileStorage,
	pub core.EventPublisher,
	logger core.Logger,
) *submission.Service {
	return submission.NewService(repo, courses, files, pub, logger)
}

func newAttendanceService(
	repo attendance.Repository,
	courses course.Repository,
	pub core.EventPublisher,
	logger core.Logger,
) *attendance.Service {
	return attendance.NewService(repo, courses, pub, logger)
}

func newDiscussionService(repo discussion.Repository, courses course.Repository) *discussion.Service {
	return discussion.NewService(repo, courses)
}

func newStudentService(courses course.Repository, subs submission.Repository, att attendance.Repository) *student.Service {
	return student.NewService(courses, subs, att)
}

func newTutorAppService(repo tutorapp.Repository, users user.ServiceInterface, logger core.Logger) *tutorapp.Service {
	return tutorapp.NewService(repo, users, logger)
}

func newQuestionService(repo question.Repository, courses course.Repository) *question.Service {
	return question.NewService(repo, courses)
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       user.ServiceInterface
	CourseSvc     *course.Service
	SubmissionSvc *submission.Service
	AttendanceSvc *attendance.Service
	DiscussionSvc *discussion.Service
	StudentSvc    *student.Service
	TutorAppSvc   *tutorapp.Service
	QuestionSvc   *question.Service
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		CourseSvc:     p.CourseSvc,
		SubmissionSvc: p.SubmissionSvc,
		AttendanceSvc: p.AttendanceSvc,
		DiscussionSvc: p.DiscussionSvc,
		StudentSvc:    p.StudentSvc,
		TutorAppSvc:   p.TutorAppSvc,
		QuestionSvc:   p.QuestionSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newRepositories))
	must(c.Provide(newFileStorage))
	must(c.Provide(events.New))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newSubmissionService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newDiscussionService))
	must(c.Provide(newStudentService))
	must(c.Provide(newTutorAppService))
	must(c.Provide(newQuestionService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
