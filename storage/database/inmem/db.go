package inmemdb

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/core/user"
)

type (
	// DB is a process-local store with one locked table per repository.
	DB struct {
		user        *userTable
		course      *courseTable
		submission  *submissionTable
		attendance  *attendanceTable
		discussion  *discussionTable
		application *applicationTable
		question    *questionTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		mutex sync.RWMutex
		table map[string]*course.Course
	}

	submissionTable struct {
		mutex sync.RWMutex
		table map[string]*submission.Submission
	}

	attendanceTable struct {
		mutex sync.RWMutex
		table map[string]*attendance.Record
	}

	discussionTable struct {
		mutex sync.RWMutex
		table map[string][]discussion.Message // by course id
	}

	applicationTable struct {
		mutex sync.RWMutex
		table map[string]*tutorapp.Application
	}

	questionTable struct {
		mutex sync.RWMutex
		table map[string]*question.Question
	}
)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		course:      &courseTable{table: make(map[string]*course.Course)},
		submission:  &submissionTable{table: make(map[string]*submission.Submission)},
		attendance:  &attendanceTable{table: make(map[string]*attendance.Record)},
		discussion:  &discussionTable{table: make(map[string][]discussion.Message)},
		application: &applicationTable{table: make(map[string]*tutorapp.Application)},
		question:    &questionTable{table: make(map[string]*question.Question)},
	}
}

// newDocID returns an id shaped like the ones of the document store.
func newDocID() string { return primitive.NewObjectID().Hex() }
