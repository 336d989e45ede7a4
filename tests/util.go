package testutil

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/logger"
	"github.com/kipkoec77/Edureach/storage/database"
)

// OpenMongo connects to the server named by EDUREACH_TEST_MONGO_URI and returns a fresh,
// indexed database that is dropped when the test ends. The test is skipped when the
// variable is unset.
func OpenMongo(t *testing.T) (*mongo.Database, *core.Config) {
	t.Helper()

	uri := os.Getenv("EDUREACH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EDUREACH_TEST_MONGO_URI not set")
	}
	conf := core.NewTestConfig()
	conf.Mongo.URI = uri
	conf.Mongo.Name = "edureach_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	ctx := context.Background()
	client, db, err := database.ConnectMongo(ctx, conf)
	if err != nil {
		t.Fatalf("connecting to mongo: %v", err)
	}
	if err = database.EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("creating indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db, conf
}

func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), conf)
}

// NewValidator returns a validator with the app validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := core.NowFunc()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateCourse stores a course owned by owner with the given students enrolled.
func CreateCourse(t *testing.T, repo course.Repository, owner user.User, title string, students ...user.User) course.Course {
	now := core.NowFunc()
	c := course.Course{
		Title:         title,
		OwnerID:       owner.ID,
		Notes:         []course.Note{},
		Assignments:   []course.Assignment{},
		Announcements: []course.Announcement{},
		Syllabus:      []course.SyllabusModule{},
		Students:      []course.Enrollment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i, s := range students {
		c.Students = append(c.Students, course.Enrollment{
			ID:         "enr-" + s.ID + "-" + string(rune('a'+i)),
			StudentID:  s.ID,
			EnrolledAt: now,
		})
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

// AddAssignment appends an assignment (optionally due at dueDate) to a stored course.
func AddAssignment(t *testing.T, repo course.Repository, courseID, title string, dueDate ...time.Time) course.Assignment {
	a := course.Assignment{
		ID:        "asg-" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Title:     title,
		CreatedAt: core.NowFunc(),
	}
	if len(dueDate) > 0 {
		d := dueDate[0].UTC()
		a.DueDate = &d
	}
	if err := repo.AddAssignment(context.Background(), courseID, a); err != nil {
		t.Fatalf("addAssignment() failed: %v", err)
	}
	return a
}

func NewUpload(filename, content string) *core.Upload {
	return &core.Upload{
		Filename:    filename,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	}
}

// StoredFiles lists the files under root, relative to it.
func StoredFiles(t *testing.T, root string) []string {
	files := make([]string, 0)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("storedFiles() failed: %v", err)
	}
	return files
}

// StubClock makes core.NowFunc tick one second per call from start until the test ends.
func StubClock(t *testing.T, start time.Time) {
	orig := core.NowFunc
	now := start.UTC()
	core.NowFunc = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(func() { core.NowFunc = orig })
}
