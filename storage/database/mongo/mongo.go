// Package mongorepos implements the document repositories on MongoDB.
package mongorepos

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kipkoec77/Edureach/core"
)

type collection struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newCollection(db *mongo.Database, name string, conf *core.Config) collection {
	return collection{coll: db.Collection(name), timeout: conf.Database.QueryTimeout}
}

func (c collection) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return core.QueryContext(ctx, c.timeout)
}

// objectID parses a hex id. Ids that are not ObjectIDs match nothing.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

type fileDoc struct {
	Filename     string `bson:"filename"`
	OriginalName string `bson:"originalName"`
	URL          string `bson:"url"`
}

func toFileDoc(f core.FileRef) fileDoc {
	return fileDoc{Filename: f.Filename, OriginalName: f.OriginalName, URL: f.URL}
}

func (d fileDoc) ref() core.FileRef {
	return core.FileRef{Filename: d.Filename, OriginalName: d.OriginalName, URL: d.URL}
}
