package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/services/events"
	"github.com/kipkoec77/Edureach/services/filestore"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

type fixture struct {
	svc     *submission.Service
	repo    submission.Repository
	files   *filestore.DiskStorage
	events  *events.Recorder
	tutor   user.User
	student user.User
	other   user.User
	course  course.Course
	asg     course.Assignment
}

func setup(t *testing.T, wrap ...func(submission.Repository) submission.Repository) fixture {
	testutil.StubClock(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	var subRepo submission.Repository = inmemdb.NewSubmissionRepository(db)
	for _, w := range wrap {
		subRepo = w(subRepo)
	}

	files, err := filestore.NewDiskStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	rec := events.NewRecorder()
	conf := core.NewTestConfig()

	f := fixture{repo: subRepo, files: files, events: rec}
	f.tutor = testutil.CreateUser(t, usrRepo, "Tutor", "tutor@test.io", "", user.RoleTutor, true)
	f.student = testutil.CreateUser(t, usrRepo, "Student", "student@test.io", "", user.RoleStudent, true)
	f.other = testutil.CreateUser(t, usrRepo, "Other", "other@test.io", "", user.RoleStudent, true)
	f.course = testutil.CreateCourse(t, crsRepo, f.tutor, "Algebra", f.student)
	f.asg = testutil.AddAssignment(t, crsRepo, f.course.ID, "Homework 1")
	f.svc = submission.NewService(subRepo, crsRepo, files, rec, testutil.NewLogger(conf))
	return f
}

func (f fixture) submit(t *testing.T, p user.User, filename string) (submission.SubmitResult, error) {
	return f.svc.Submit(context.Background(), p.Principal(), f.course.ID, f.asg.ID, testutil.NewUpload(filename, "content of "+filename))
}

func fPtr(v float64) *float64 { return &v }
func sPtr(v string) *string { return &v }

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("access", func(t *testing.T) {
		f := setup(t)
		tests := []struct {
			name         string
			usr          user.User
			courseID     string
			assignmentID string
			upload       *core.Upload
			wantErr      error
		}{
			{name: "unknown course", usr: f.student, courseID: "nope", assignmentID: f.asg.ID, upload: testutil.NewUpload("a.pdf", "a"), wantErr: course.ErrNotFound},
			{name: "not enrolled", usr: f.other, courseID: f.course.ID, assignmentID: f.asg.ID, upload: testutil.NewUpload("a.pdf", "a"), wantErr: submission.ErrNotEnrolled},
			{name: "tutor is not enrolled", usr: f.tutor, courseID: f.course.ID, assignmentID: f.asg.ID, upload: testutil.NewUpload("a.pdf", "a"), wantErr: submission.ErrNotEnrolled},
			{name: "unknown assignment", usr: f.student, courseID: f.course.ID, assignmentID: "nope", upload: testutil.NewUpload("a.pdf", "a"), wantErr: course.ErrAssignmentNotFound},
			{name: "missing file", usr: f.student, courseID: f.course.ID, assignmentID: f.asg.ID, wantErr: course.ErrFileRequired},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.Submit(ctx, tt.usr.Principal(), tt.courseID, tt.assignmentID, tt.upload)
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			})
		}
		assert.Empty(t, testutil.StoredFiles(t, f.files.Root()))
		assert.Empty(t, f.events.Events())
	})

	t.Run("first submission", func(t *testing.T) {
		f := setup(t)
		res, err := f.submit(t, f.student, "answers.pdf")
		require.NoError(t, err)

		sub := res.Submission
		assert.False(t, res.Updated)
		assert.NotEmpty(t, sub.ID)
		assert.Equal(t, f.student.ID, sub.StudentID)
		assert.Equal(t, "answers.pdf", sub.OriginalName)
		assert.Equal(t, "/uploads/"+sub.Filename, sub.URL)
		assert.False(t, sub.Archived)
		assert.Nil(t, sub.PreviousSubmissionID)
		assert.Equal(t, []string{sub.Filename}, testutil.StoredFiles(t, f.files.Root()))
		assert.Equal(t, []string{core.EventSubmissionSubmitted}, f.events.Types())
	})

	t.Run("resubmission archives the previous one", func(t *testing.T) {
		f := setup(t)
		first, err := f.submit(t, f.student, "v1.pdf")
		require.NoError(t, err)
		second, err := f.submit(t, f.student, "v2.pdf")
		require.NoError(t, err)

		assert.True(t, second.Updated)
		require.NotNil(t, second.Submission.PreviousSubmissionID)
		assert.Equal(t, first.Submission.ID, *second.Submission.PreviousSubmissionID)

		old, err := f.repo.GetByID(ctx, first.Submission.ID)
		require.NoError(t, err)
		assert.True(t, old.Archived)
		assert.NotNil(t, old.ArchivedAt)

		mine, err := f.svc.GetMine(ctx, f.student.Principal(), f.course.ID, f.asg.ID)
		require.NoError(t, err)
		require.NotNil(t, mine)
		assert.Equal(t, second.Submission.ID, mine.ID)

		// archived files are kept for the history
		assert.Len(t, testutil.StoredFiles(t, f.files.Root()), 2)
	})

	t.Run("graded submission locks the assignment", func(t *testing.T) {
		f := setup(t)
		first, err := f.submit(t, f.student, "v1.pdf")
		require.NoError(t, err)
		_, err = f.svc.Grade(ctx, f.tutor.Principal(), first.Submission.ID, submission.Grading{Grade: fPtr(15)})
		require.NoError(t, err)

		_, err = f.submit(t, f.student, "v2.pdf")
		assert.Equal(t, submission.ErrLocked, errors.Cause(err))
		assert.Len(t, testutil.StoredFiles(t, f.files.Root()), 1)
	})

	t.Run("feedback alone does not lock", func(t *testing.T) {
		f := setup(t)
		first, err := f.submit(t, f.student, "v1.pdf")
		require.NoError(t, err)
		_, err = f.svc.Grade(ctx, f.tutor.Principal(), first.Submission.ID, submission.Grading{Feedback: sPtr("  redo part 2 ")})
		require.NoError(t, err)

		res, err := f.submit(t, f.student, "v2.pdf")
		require.NoError(t, err)
		assert.True(t, res.Updated)
	})
}

// racingGrader grades the submission right before it gets archived.
type racingGrader struct {
	submission.Repository
}

func (r racingGrader) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	if _, err := r.SetGrading(ctx, id, submission.Grading{Grade: fPtr(12)}, "racing-tutor", at); err != nil {
		return false, err
	}
	return r.Repository.Archive(ctx, id, at)
}

// racingSubmitter archives the submission right before the service does.
type racingSubmitter struct {
	submission.Repository
}

func (r racingSubmitter) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	if _, err := r.Repository.Archive(ctx, id, at); err != nil {
		return false, err
	}
	return r.Repository.Archive(ctx, id, at)
}

func TestService_Submit_races(t *testing.T) {
	t.Run("graded meanwhile", func(t *testing.T) {
		f := setup(t, func(repo submission.Repository) submission.Repository {
			return racingGrader{Repository: repo}
		})
		first, err := f.submit(t, f.student, "v1.pdf")
		require.NoError(t, err)

		_, err = f.submit(t, f.student, "v2.pdf")
		assert.Equal(t, submission.ErrLocked, errors.Cause(err))
		assert.Equal(t, []string{first.Submission.Filename}, testutil.StoredFiles(t, f.files.Root()))
	})

	t.Run("resubmitted meanwhile", func(t *testing.T) {
		f := setup(t, func(repo submission.Repository) submission.Repository {
			return racingSubmitter{Repository: repo}
		})
		first, err := f.submit(t, f.student, "v1.pdf")
		require.NoError(t, err)

		_, err = f.submit(t, f.student, "v2.pdf")
		assert.Equal(t, submission.ErrConflict, errors.Cause(err))
		assert.Equal(t, []string{first.Submission.Filename}, testutil.StoredFiles(t, f.files.Root()))
	})
}

func TestService_Grade(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	res, err := f.submit(t, f.student, "answers.pdf")
	require.NoError(t, err)
	id := res.Submission.ID

	_, err = f.svc.Grade(ctx, f.tutor.Principal(), "nope", submission.Grading{Grade: fPtr(10)})
	assert.Equal(t, submission.ErrNotFound, errors.Cause(err))

	_, err = f.svc.Grade(ctx, f.student.Principal(), id, submission.Grading{Grade: fPtr(20)})
	assert.Equal(t, course.ErrNotOwner, errors.Cause(err))

	sub, err := f.svc.Grade(ctx, f.tutor.Principal(), id, submission.Grading{Feedback: sPtr("good start")})
	require.NoError(t, err)
	assert.Nil(t, sub.Grade)
	assert.False(t, sub.IsLocked())
	assert.Equal(t, "good start", *sub.Feedback)

	f.events.Reset()
	sub, err = f.svc.Grade(ctx, f.tutor.Principal(), id, submission.Grading{Grade: fPtr(17.5)})
	require.NoError(t, err)
	assert.Equal(t, 17.5, *sub.Grade)
	assert.Equal(t, "good start", *sub.Feedback, "feedback is kept when not provided")
	assert.Equal(t, f.tutor.ID, *sub.GradedBy)
	assert.NotNil(t, sub.GradedAt)
	assert.True(t, sub.IsLocked())
	assert.Equal(t, []string{core.EventSubmissionGraded}, f.events.Types())
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	_, err := f.submit(t, f.student, "v1.pdf")
	require.NoError(t, err)
	latest, err := f.submit(t, f.student, "v2.pdf")
	require.NoError(t, err)

	_, err = f.svc.List(ctx, f.student.Principal(), f.course.ID, f.asg.ID)
	assert.Equal(t, course.ErrNotOwner, errors.Cause(err))

	subs, err := f.svc.List(ctx, f.tutor.Principal(), f.course.ID, f.asg.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, latest.Submission.ID, subs[0].ID)
}

func TestService_GetMine(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	mine, err := f.svc.GetMine(ctx, f.student.Principal(), f.course.ID, f.asg.ID)
	require.NoError(t, err)
	assert.Nil(t, mine)

	res, err := f.submit(t, f.student, "v1.pdf")
	require.NoError(t, err)
	mine, err = f.svc.GetMine(ctx, f.student.Principal(), f.course.ID, f.asg.ID)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, res.Submission.ID, mine.ID)
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	var ids []string
	for _, name := range []string{"v1.pdf", "v2.pdf", "v3.pdf"} {
		res, err := f.submit(t, f.student, name)
		require.NoError(t, err)
		ids = append(ids, res.Submission.ID)
	}

	history, err := f.svc.History(ctx, f.student.Principal(), f.course.ID, f.asg.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(history))
	for _, s := range history {
		got = append(got, s.ID)
	}
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, got)
	assert.False(t, history[0].Archived)
	assert.True(t, history[1].Archived)
	assert.True(t, history[2].Archived)
	assert.Nil(t, history[2].PreviousSubmissionID)

	history, err = f.svc.History(ctx, f.other.Principal(), f.course.ID, f.asg.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
