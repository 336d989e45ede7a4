package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/attendance"
	"github.com/kipkoec77/Edureach/storage/database"
)

type attendanceDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	CourseID        string             `bson:"courseId"`
	TutorID         string             `bson:"tutorId"`
	Date            time.Time          `bson:"date"`
	TotalEnrolled   int                `bson:"totalEnrolled"`
	PresentStudents []string           `bson:"presentStudents"`
	Status          string             `bson:"status"`
	ClosedAt        *time.Time         `bson:"closedAt,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

func (d attendanceDoc) record() attendance.Record {
	present := d.PresentStudents
	if present == nil {
		present = []string{}
	}
	return attendance.Record{
		ID:              d.ID.Hex(),
		CourseID:        d.CourseID,
		TutorID:         d.TutorID,
		Date:            utc(d.Date),
		TotalEnrolled:   d.TotalEnrolled,
		PresentStudents: present,
		Status:          attendance.Status(d.Status),
		ClosedAt:        utcPtr(d.ClosedAt),
		CreatedAt:       utc(d.CreatedAt),
	}
}

type attendanceRepository struct {
	collection
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *mongo.Database, conf *core.Config) attendance.Repository {
	return &attendanceRepository{newCollection(db, database.AttendanceCollection, conf)}
}

func (repo *attendanceRepository) Create(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	present := r.PresentStudents
	if present == nil {
		present = []string{}
	}
	d := attendanceDoc{
		ID:              primitive.NewObjectID(),
		CourseID:        r.CourseID,
		TutorID:         r.TutorID,
		Date:            utc(r.Date),
		TotalEnrolled:   r.TotalEnrolled,
		PresentStudents: present,
		Status:          string(r.Status),
		ClosedAt:        utcPtr(r.ClosedAt),
		CreatedAt:       utc(r.CreatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return d.record(), nil
}

func (repo *attendanceRepository) Get(ctx context.Context, id string) (attendance.Record, error) {
	oid, ok := objectID(id)
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d attendanceDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "finding attendance record")
	}
	return d.record(), nil
}

func (repo *attendanceRepository) AddPresent(ctx context.Context, id, studentID string) (attendance.Record, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return attendance.Record{}, false, attendance.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d attendanceDoc
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": string(attendance.StatusOpen)},
		bson.M{"$addToSet": bson.M{"presentStudents": studentID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.Record{}, false, nil
		}
		return attendance.Record{}, false, errors.Wrap(err, "marking present")
	}
	return d.record(), true, nil
}

func (repo *attendanceRepository) Close(ctx context.Context, id string, at time.Time) (attendance.Record, error) {
	oid, ok := objectID(id)
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": string(attendance.StatusOpen)},
		bson.M{"$set": bson.M{"status": string(attendance.StatusClosed), "closedAt": at.UTC()}},
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "closing attendance record")
	}
	return repo.Get(ctx, id)
}

func (repo *attendanceRepository) ListByCourses(ctx context.Context, courseIDs ...string) ([]attendance.Record, error) {
	if len(courseIDs) == 0 {
		return []attendance.Record{}, nil
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx,
		bson.M{"courseId": bson.M{"$in": courseIDs}},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "finding attendance records")
	}
	var docs []attendanceDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding attendance records")
	}
	records := make([]attendance.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.record())
	}
	return records, nil
}
