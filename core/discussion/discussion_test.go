package discussion_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/user"
	"github.com/kipkoec77/Edureach/storage/database/inmem"
	"github.com/kipkoec77/Edureach/tests"
)

func TestService(t *testing.T) {
	testutil.StubClock(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	svc := discussion.NewService(inmemdb.NewDiscussionRepository(db), crsRepo)

	tutor := testutil.CreateUser(t, usrRepo, "Tutor", "tutor@test.io", "", user.RoleTutor, true)
	stud := testutil.CreateUser(t, usrRepo, "Student", "student@test.io", "", user.RoleStudent, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "out@test.io", "", user.RoleStudent, true)
	c := testutil.CreateCourse(t, crsRepo, tutor, "Philosophy", stud)
	other := testutil.CreateCourse(t, crsRepo, tutor, "Logic")

	msgs, err := svc.List(ctx, stud.Principal(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = svc.Post(ctx, outsider.Principal(), c.ID, discussion.NewMessage{Message: "hello?"})
	assert.Equal(t, course.ErrNotMember, errors.Cause(err))
	_, err = svc.List(ctx, outsider.Principal(), c.ID)
	assert.Equal(t, course.ErrNotMember, errors.Cause(err))
	_, err = svc.List(ctx, stud.Principal(), "nope")
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	q, err := svc.Post(ctx, stud.Principal(), c.ID, discussion.NewMessage{Message: "What is virtue?"})
	require.NoError(t, err)
	a, err := svc.Post(ctx, tutor.Principal(), c.ID, discussion.NewMessage{Message: "Read Aristotle."})
	require.NoError(t, err)
	assert.NotEqual(t, q.ID, a.ID)
	assert.Equal(t, stud.ID, q.UserID)

	msgs, err = svc.List(ctx, tutor.Principal(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []discussion.Message{q, a}, msgs)

	msgs, err = svc.List(ctx, tutor.Principal(), other.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs, "threads are per course")
}

func TestNewMessage_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	tests := []struct {
		name    string
		msg     string
		wantErr bool
	}{
		{name: "empty", msg: "", wantErr: true},
		{name: "blank", msg: "  \n ", wantErr: true},
		{name: "valid", msg: " hi "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nm := discussion.NewMessage{Message: tt.msg}
			if err := nm.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
