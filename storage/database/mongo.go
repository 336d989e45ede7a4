package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kipkoec77/Edureach/core"
)

// Mongo collections
const (
	CoursesCollection      = "courses"
	SubmissionsCollection  = "submissions"
	AttendanceCollection   = "attendance_records"
	DiscussionsCollection  = "discussions"
	ApplicationsCollection = "tutor_applications"
	QuestionsCollection    = "questions"
)

const connectTimeout = 10 * time.Second

// ConnectMongo connects to the document store and returns the application database.
func ConnectMongo(ctx context.Context, conf *core.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Mongo.URI).SetAppName(conf.AppName))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "pinging mongo")
	}
	return client, client.Database(conf.Mongo.Name), nil
}

// EnsureIndexes creates the indexes the repositories rely on, including the ones
// enforcing uniqueness rules.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CoursesCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
			{Keys: bson.D{{Key: "students.studentId", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		SubmissionsCollection: {
			// at most one active submission per student and assignment
			{
				Keys: bson.D{
					{Key: "courseId", Value: 1},
					{Key: "assignmentId", Value: 1},
					{Key: "studentId", Value: 1},
				},
				Options: options.Index().
					SetName("active_submission").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"archived": false}),
			},
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "courseId", Value: 1}}},
		},
		AttendanceCollection: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "date", Value: -1}}},
		},
		DiscussionsCollection: {
			{Keys: bson.D{{Key: "courseId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ApplicationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		QuestionsCollection: {
			{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}
