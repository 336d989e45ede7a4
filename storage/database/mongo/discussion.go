package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/core/discussion"
	"github.com/kipkoec77/Edureach/storage/database"
)

type (
	messageDoc struct {
		ID        string    `bson:"id"`
		UserID    string    `bson:"userId"`
		Message   string    `bson:"message"`
		Timestamp time.Time `bson:"timestamp"`
	}

	discussionDoc struct {
		CourseID  string       `bson:"courseId"`
		Messages  []messageDoc `bson:"messages"`
		CreatedAt time.Time    `bson:"createdAt"`
		UpdatedAt time.Time    `bson:"updatedAt"`
	}
)

type discussionRepository struct {
	collection
}

var _ discussion.Repository = (*discussionRepository)(nil)

func NewDiscussionRepository(db *mongo.Database, conf *core.Config) discussion.Repository {
	return &discussionRepository{newCollection(db, database.DiscussionsCollection, conf)}
}

func (repo *discussionRepository) Messages(ctx context.Context, courseID string) ([]discussion.Message, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	msgs := []discussion.Message{}
	var d discussionDoc
	if err := repo.coll.FindOne(ctx, bson.M{"courseId": courseID}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return msgs, nil
		}
		return nil, errors.Wrap(err, "finding discussion")
	}
	for _, m := range d.Messages {
		msgs = append(msgs, discussion.Message{ID: m.ID, UserID: m.UserID, Message: m.Message, Timestamp: utc(m.Timestamp)})
	}
	return msgs, nil
}

func (repo *discussionRepository) Append(ctx context.Context, courseID string, m discussion.Message) error {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	now := core.NowFunc()
	doc := messageDoc{ID: m.ID, UserID: m.UserID, Message: m.Message, Timestamp: utc(m.Timestamp)}
	_, err := repo.coll.UpdateOne(ctx,
		bson.M{"courseId": courseID},
		bson.M{
			"$push":        bson.M{"messages": doc},
			"$set":         bson.M{"updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "appending message")
}
