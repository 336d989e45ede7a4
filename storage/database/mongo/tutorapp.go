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
	"github.com/kipkoec77/Edureach/core/tutorapp"
	"github.com/kipkoec77/Edureach/storage/database"
)

type applicationDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"userId"`
	Subjects       []string           `bson:"subjects"`
	Experience     string             `bson:"experience"`
	IDNumber       string             `bson:"idNumber"`
	CertificateURL string             `bson:"certificateURL"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d applicationDoc) application() tutorapp.Application {
	subjects := d.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return tutorapp.Application{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		Subjects:       subjects,
		Experience:     d.Experience,
		IDNumber:       d.IDNumber,
		CertificateURL: d.CertificateURL,
		Status:         tutorapp.Status(d.Status),
		CreatedAt:      utc(d.CreatedAt),
		UpdatedAt:      utc(d.UpdatedAt),
	}
}

type applicationRepository struct {
	collection
}

var _ tutorapp.Repository = (*applicationRepository)(nil)

func NewApplicationRepository(db *mongo.Database, conf *core.Config) tutorapp.Repository {
	return &applicationRepository{newCollection(db, database.ApplicationsCollection, conf)}
}

func (repo *applicationRepository) Create(ctx context.Context, a tutorapp.Application) (tutorapp.Application, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	d := applicationDoc{
		ID:             primitive.NewObjectID(),
		UserID:         a.UserID,
		Subjects:       a.Subjects,
		Experience:     a.Experience,
		IDNumber:       a.IDNumber,
		CertificateURL: a.CertificateURL,
		Status:         string(a.Status),
		CreatedAt:      utc(a.CreatedAt),
		UpdatedAt:      utc(a.UpdatedAt),
	}
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return tutorapp.Application{}, tutorapp.ErrAlreadyExists
		}
		return tutorapp.Application{}, errors.Wrap(err, "inserting application")
	}
	return d.application(), nil
}

func (repo *applicationRepository) findOne(ctx context.Context, filter bson.M) (tutorapp.Application, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d applicationDoc
	if err := repo.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return tutorapp.Application{}, tutorapp.ErrNotFound
		}
		return tutorapp.Application{}, errors.Wrap(err, "finding application")
	}
	return d.application(), nil
}

func (repo *applicationRepository) Get(ctx context.Context, id string) (tutorapp.Application, error) {
	oid, ok := objectID(id)
	if !ok {
		return tutorapp.Application{}, tutorapp.ErrNotFound
	}
	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *applicationRepository) GetByUser(ctx context.Context, userID string) (tutorapp.Application, error) {
	return repo.findOne(ctx, bson.M{"userId": userID})
}

func (repo *applicationRepository) ListByStatus(ctx context.Context, status tutorapp.Status) ([]tutorapp.Application, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	cur, err := repo.coll.Find(ctx,
		bson.M{"status": string(status)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing applications")
	}
	var docs []applicationDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding applications")
	}
	apps := make([]tutorapp.Application, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, d.application())
	}
	return apps, nil
}

func (repo *applicationRepository) SetStatus(ctx context.Context, id string, status tutorapp.Status) (tutorapp.Application, error) {
	oid, ok := objectID(id)
	if !ok {
		return tutorapp.Application{}, tutorapp.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d applicationDoc
	err := repo.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": core.NowFunc()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return tutorapp.Application{}, tutorapp.ErrNotFound
		}
		return tutorapp.Application{}, errors.Wrap(err, "updating application")
	}
	return d.application(), nil
}
