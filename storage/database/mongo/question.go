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
	"github.com/kipkoec77/Edureach/core/question"
	"github.com/kipkoec77/Edureach/storage/database"
)

type questionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	CourseID   string             `bson:"courseId"`
	StudentID  string             `bson:"studentId"`
	TutorID    string             `bson:"tutorId"`
	Message    string             `bson:"message"`
	Answer     *string            `bson:"answer,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt"`
	AnsweredAt *time.Time         `bson:"answeredAt,omitempty"`
}

func (d questionDoc) question() question.Question {
	return question.Question{
		ID:         d.ID.Hex(),
		CourseID:   d.CourseID,
		StudentID:  d.StudentID,
		TutorID:    d.TutorID,
		Message:    d.Message,
		Answer:     d.Answer,
		CreatedAt:  utc(d.CreatedAt),
		AnsweredAt: utcPtr(d.AnsweredAt),
	}
}

type questionRepository struct {
	collection
}

var _ question.Repository = (*questionRepository)(nil)

func NewQuestionRepository(db *mongo.Database, conf *core.Config) question.Repository {
	return &questionRepository{newCollection(db, database.QuestionsCollection, conf)}
}

func (repo *questionRepository) Create(ctx context.Context, q question.Question) (question.Question, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	d := questionDoc{
		ID:        primitive.NewObjectID(),
		CourseID:  q.CourseID,
		StudentID: q.StudentID,
		TutorID:   q.TutorID,
		Message:   q.Message,
		CreatedAt: utc(q.CreatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return question.Question{}, errors.Wrap(err, "inserting question")
	}
	return d.question(), nil
}

func (repo *questionRepository) Get(ctx context.Context, id string) (question.Question, error) {
	oid, ok := objectID(id)
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d questionDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, errors.Wrap(err, "finding question")
	}
	return d.question(), nil
}

func (repo *questionRepository) ListByCourse(ctx context.Context, courseID string) ([]question.Question, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx,
		bson.M{"courseId": courseID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing questions")
	}
	var docs []questionDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding questions")
	}
	qs := make([]question.Question, 0, len(docs))
	for _, d := range docs {
		qs = append(qs, d.question())
	}
	return qs, nil
}

func (repo *questionRepository) SetAnswer(ctx context.Context, id, answer string, at time.Time) (question.Question, error) {
	oid, ok := objectID(id)
	if !ok {
		return question.Question{}, question.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d questionDoc
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"answer": answer, "answeredAt": utc(at)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return question.Question{}, question.ErrNotFound
		}
		return question.Question{}, errors.Wrap(err, "answering question")
	}
	return d.question(), nil
}
