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
	"github.com/kipkoec77/Edureach/core/submission"
	"github.com/kipkoec77/Edureach/storage/database"
)

type submissionDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	CourseID             string             `bson:"courseId"`
	AssignmentID         string             `bson:"assignmentId"`
	StudentID            string             `bson:"studentId"`
	File                 fileDoc            `bson:",inline"`
	SubmittedAt          time.Time          `bson:"submittedAt"`
	Grade                *float64           `bson:"grade"`
	Feedback             *string            `bson:"feedback,omitempty"`
	GradedBy             *string            `bson:"gradedBy,omitempty"`
	GradedAt             *time.Time         `bson:"gradedAt,omitempty"`
	Archived             bool               `bson:"archived"`
	ArchivedAt           *time.Time         `bson:"archivedAt,omitempty"`
	PreviousSubmissionID *string            `bson:"previousSubmissionId,omitempty"`
}

func toSubmissionDoc(s submission.Submission) submissionDoc {
	d := submissionDoc{
		CourseID:             s.CourseID,
		AssignmentID:         s.AssignmentID,
		StudentID:            s.StudentID,
		File:                 toFileDoc(s.FileRef),
		SubmittedAt:          utc(s.SubmittedAt),
		Grade:                s.Grade,
		Feedback:             s.Feedback,
		GradedBy:             s.GradedBy,
		GradedAt:             utcPtr(s.GradedAt),
		Archived:             s.Archived,
		ArchivedAt:           utcPtr(s.ArchivedAt),
		PreviousSubmissionID: s.PreviousSubmissionID,
	}
	if oid, ok := objectID(s.ID); ok {
		d.ID = oid
	}
	return d
}

func (d submissionDoc) submission() submission.Submission {
	return submission.Submission{
		ID:                   d.ID.Hex(),
		CourseID:             d.CourseID,
		AssignmentID:         d.AssignmentID,
		StudentID:            d.StudentID,
		FileRef:              d.File.ref(),
		SubmittedAt:          utc(d.SubmittedAt),
		Grade:                d.Grade,
		Feedback:             d.Feedback,
		GradedBy:             d.GradedBy,
		GradedAt:             utcPtr(d.GradedAt),
		Archived:             d.Archived,
		ArchivedAt:           utcPtr(d.ArchivedAt),
		PreviousSubmissionID: d.PreviousSubmissionID,
	}
}

func keyFilter(k submission.Key) bson.M {
	return bson.M{"courseId": k.CourseID, "assignmentId": k.AssignmentID, "studentId": k.StudentID}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}})

type submissionRepository struct {
	collection
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *mongo.Database, conf *core.Config) submission.Repository {
	return &submissionRepository{newCollection(db, database.SubmissionsCollection, conf)}
}

func (repo *submissionRepository) findOne(ctx context.Context, filter bson.M) (submission.Submission, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d submissionDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "finding submission")
	}
	return d.submission(), nil
}

func (repo *submissionRepository) find(ctx context.Context, filter bson.M) ([]submission.Submission, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, errors.Wrap(err, "finding submissions")
	}
	var docs []submissionDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding submissions")
	}
	subs := make([]submission.Submission, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, d.submission())
	}
	return subs, nil
}

func (repo *submissionRepository) GetActive(ctx context.Context, k submission.Key) (submission.Submission, error) {
	filter := keyFilter(k)
	filter["archived"] = false
	return repo.findOne(ctx, filter)
}

func (repo *submissionRepository) GetByID(ctx context.Context, id string) (submission.Submission, error) {
	oid, ok := objectID(id)
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *submissionRepository) Insert(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	d := toSubmissionDoc(s)
	d.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return submission.Submission{}, submission.ErrConflict
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return d.submission(), nil
}

func (repo *submissionRepository) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "archived": false, "grade": nil},
		bson.M{"$set": bson.M{"archived": true, "archivedAt": at.UTC()}},
	)
	if err != nil {
		return false, errors.Wrap(err, "archiving submission")
	}
	return res.ModifiedCount > 0, nil
}

func (repo *submissionRepository) SetGrading(
	ctx context.Context,
	id string,
	g submission.Grading,
	gradedBy string,
	at time.Time,
) (submission.Submission, error) {
	oid, ok := objectID(id)
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	set := bson.M{"gradedBy": gradedBy, "gradedAt": at.UTC()}
	if g.Grade != nil {
		set["grade"] = *g.Grade
	}
	if g.Feedback != nil {
		set["feedback"] = *g.Feedback
	}
	var d submissionDoc
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "grading submission")
	}
	return d.submission(), nil
}

func (repo *submissionRepository) ListActive(ctx context.Context, courseID, assignmentID string) ([]submission.Submission, error) {
	return repo.find(ctx, bson.M{"courseId": courseID, "assignmentId": assignmentID, "archived": false})
}

func (repo *submissionRepository) ListHistory(ctx context.Context, k submission.Key) ([]submission.Submission, error) {
	return repo.find(ctx, keyFilter(k))
}

func (repo *submissionRepository) ListActiveByStudent(ctx context.Context, studentID string, courseIDs ...string) ([]submission.Submission, error) {
	if len(courseIDs) == 0 {
		return []submission.Submission{}, nil
	}
	return repo.find(ctx, bson.M{"studentId": studentID, "courseId": bson.M{"$in": courseIDs}, "archived": false})
}
