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
	"github.com/kipkoec77/Edureach/core/course"
	"github.com/kipkoec77/Edureach/storage/database"
)

type (
	noteDoc struct {
		ID         string    `bson:"id"`
		File       fileDoc   `bson:",inline"`
		UploadedAt time.Time `bson:"uploadedAt"`
	}

	assignmentDoc struct {
		ID          string     `bson:"id"`
		Title       string     `bson:"title"`
		Description string     `bson:"description"`
		File        *fileDoc   `bson:"file,omitempty"`
		DueDate     *time.Time `bson:"dueDate,omitempty"`
		CreatedAt   time.Time  `bson:"createdAt"`
	}

	announcementDoc struct {
		ID        string    `bson:"id"`
		Title     string    `bson:"title"`
		Message   string    `bson:"message"`
		CreatedAt time.Time `bson:"createdAt"`
		UpdatedAt time.Time `bson:"updatedAt"`
	}

	syllabusDoc struct {
		Title       string   `bson:"title"`
		Description string   `bson:"description"`
		Topics      []string `bson:"topics"`
	}

	enrollmentDoc struct {
		ID         string    `bson:"id"`
		StudentID  string    `bson:"studentId"`
		EnrolledAt time.Time `bson:"enrolledAt"`
	}

	courseDoc struct {
		ID            primitive.ObjectID `bson:"_id,omitempty"`
		Title         string             `bson:"title"`
		Description   string             `bson:"description"`
		Category      string             `bson:"category"`
		Level         string             `bson:"level"`
		OwnerID       string             `bson:"ownerId"`
		Notes         []noteDoc          `bson:"notes"`
		Assignments   []assignmentDoc    `bson:"assignments"`
		Announcements []announcementDoc  `bson:"announcements"`
		Syllabus      []syllabusDoc      `bson:"syllabus"`
		Students      []enrollmentDoc    `bson:"students"`
		CreatedAt     time.Time          `bson:"createdAt"`
		UpdatedAt     time.Time          `bson:"updatedAt"`
	}
)

func toNoteDoc(n course.Note) noteDoc {
	return noteDoc{ID: n.ID, File: toFileDoc(n.FileRef), UploadedAt: utc(n.UploadedAt)}
}

func toAssignmentDoc(a course.Assignment) assignmentDoc {
	d := assignmentDoc{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     utcPtr(a.DueDate),
		CreatedAt:   utc(a.CreatedAt),
	}
	if a.File != nil {
		f := toFileDoc(*a.File)
		d.File = &f
	}
	return d
}

func toAnnouncementDoc(a course.Announcement) announcementDoc {
	return announcementDoc{ID: a.ID, Title: a.Title, Message: a.Message, CreatedAt: utc(a.CreatedAt), UpdatedAt: utc(a.UpdatedAt)}
}

func toSyllabusDocs(mods []course.SyllabusModule) []syllabusDoc {
	docs := make([]syllabusDoc, 0, len(mods))
	for _, m := range mods {
		topics := m.Topics
		if topics == nil {
			topics = []string{}
		}
		docs = append(docs, syllabusDoc{Title: m.Title, Description: m.Description, Topics: topics})
	}
	return docs
}

func toCourseDoc(c course.Course) courseDoc {
	d := courseDoc{
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		Level:         c.Level,
		OwnerID:       c.OwnerID,
		Notes:         make([]noteDoc, 0, len(c.Notes)),
		Assignments:   make([]assignmentDoc, 0, len(c.Assignments)),
		Announcements: make([]announcementDoc, 0, len(c.Announcements)),
		Syllabus:      toSyllabusDocs(c.Syllabus),
		Students:      make([]enrollmentDoc, 0, len(c.Students)),
		CreatedAt:     utc(c.CreatedAt),
		UpdatedAt:     utc(c.UpdatedAt),
	}
	if oid, ok := objectID(c.ID); ok {
		d.ID = oid
	}
	for _, n := range c.Notes {
		d.Notes = append(d.Notes, toNoteDoc(n))
	}
	for _, a := range c.Assignments {
		d.Assignments = append(d.Assignments, toAssignmentDoc(a))
	}
	for _, a := range c.Announcements {
		d.Announcements = append(d.Announcements, toAnnouncementDoc(a))
	}
	for _, s := range c.Students {
		d.Students = append(d.Students, enrollmentDoc{ID: s.ID, StudentID: s.StudentID, EnrolledAt: utc(s.EnrolledAt)})
	}
	return d
}

func (d courseDoc) course() course.Course {
	c := course.Course{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Category:      d.Category,
		Level:         d.Level,
		OwnerID:       d.OwnerID,
		Notes:         make([]course.Note, 0, len(d.Notes)),
		Assignments:   make([]course.Assignment, 0, len(d.Assignments)),
		Announcements: make([]course.Announcement, 0, len(d.Announcements)),
		Syllabus:      make([]course.SyllabusModule, 0, len(d.Syllabus)),
		Students:      make([]course.Enrollment, 0, len(d.Students)),
		CreatedAt:     utc(d.CreatedAt),
		UpdatedAt:     utc(d.UpdatedAt),
	}
	for _, n := range d.Notes {
		c.Notes = append(c.Notes, course.Note{ID: n.ID, FileRef: n.File.ref(), UploadedAt: utc(n.UploadedAt)})
	}
	for _, a := range d.Assignments {
		ca := course.Assignment{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			DueDate:     utcPtr(a.DueDate),
			CreatedAt:   utc(a.CreatedAt),
		}
		if a.File != nil {
			ref := a.File.ref()
			ca.File = &ref
		}
		c.Assignments = append(c.Assignments, ca)
	}
	for _, a := range d.Announcements {
		c.Announcements = append(c.Announcements, course.Announcement{
			ID: a.ID, Title: a.Title, Message: a.Message, CreatedAt: utc(a.CreatedAt), UpdatedAt: utc(a.UpdatedAt),
		})
	}
	for _, m := range d.Syllabus {
		c.Syllabus = append(c.Syllabus, course.SyllabusModule{Title: m.Title, Description: m.Description, Topics: m.Topics})
	}
	for _, s := range d.Students {
		c.Students = append(c.Students, course.Enrollment{ID: s.ID, StudentID: s.StudentID, EnrolledAt: utc(s.EnrolledAt)})
	}
	return c
}

type courseRepository struct {
	collection
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *mongo.Database, conf *core.Config) course.Repository {
	return &courseRepository{newCollection(db, database.CoursesCollection, conf)}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	d := toCourseDoc(c)
	d.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return d.course(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	oid, ok := objectID(id)
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	var d courseDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return d.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	q := bson.M{}
	if filter.OwnerID != "" {
		q["ownerId"] = filter.OwnerID
	}
	if filter.StudentID != "" {
		q["students.studentId"] = filter.StudentID
	}
	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	courses := make([]course.Course, 0, len(docs))
	for _, d := range docs {
		courses = append(courses, d.course())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	oid, ok := objectID(c.ID)
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"title":       c.Title,
		"description": c.Description,
		"category":    c.Category,
		"level":       c.Level,
		"syllabus":    toSyllabusDocs(c.Syllabus),
		"updatedAt":   core.NowFunc(),
	}}
	var d courseDoc
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return d.course(), nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return course.ErrNotFound
	}
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if res.DeletedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

// update applies a single-document update and reports whether filter matched.
func (repo *courseRepository) update(ctx context.Context, filter bson.M, update bson.M) (bool, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()

	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = core.NowFunc()

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (repo *courseRepository) exists(ctx context.Context, oid primitive.ObjectID) (bool, error) {
	ctx, cancel := repo.ctx(ctx)
	defer cancel()
	n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	return n > 0, err
}

// push appends item to the field array of an existing course.
func (repo *courseRepository) push(ctx context.Context, courseID, field string, item interface{}) error {
	oid, ok := objectID(courseID)
	if !ok {
		return course.ErrNotFound
	}
	matched, err := repo.update(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{field: item}})
	if err != nil {
		return errors.Wrapf(err, "pushing to %s", field)
	}
	if !matched {
		return course.ErrNotFound
	}
	return nil
}

// pull removes the element with itemID from the field array; it reports whether one was removed.
func (repo *courseRepository) pull(ctx context.Context, courseID, field, itemID string) (bool, error) {
	oid, ok := objectID(courseID)
	if !ok {
		return false, course.ErrNotFound
	}
	matched, err := repo.update(ctx,
		bson.M{"_id": oid, field + ".id": itemID},
		bson.M{"$pull": bson.M{field: bson.M{"id": itemID}}},
	)
	return matched, errors.Wrapf(err, "pulling from %s", field)
}

// replace overwrites the element with itemID in the field array; it reports whether one was replaced.
func (repo *courseRepository) replace(ctx context.Context, courseID, field, itemID string, item interface{}) (bool, error) {
	oid, ok := objectID(courseID)
	if !ok {
		return false, course.ErrNotFound
	}
	matched, err := repo.update(ctx,
		bson.M{"_id": oid, field + ".id": itemID},
		bson.M{"$set": bson.M{field + ".$": item}},
	)
	return matched, errors.Wrapf(err, "replacing in %s", field)
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID string, e course.Enrollment) (bool, error) {
	oid, ok := objectID(courseID)
	if !ok {
		return false, course.ErrNotFound
	}
	doc := enrollmentDoc{ID: e.ID, StudentID: e.StudentID, EnrolledAt: utc(e.EnrolledAt)}
	added, err := repo.update(ctx,
		bson.M{"_id": oid, "students.studentId": bson.M{"$ne": e.StudentID}},
		bson.M{"$push": bson.M{"students": doc}},
	)
	if err != nil {
		return false, errors.Wrap(err, "adding student")
	}
	if added {
		return true, nil
	}
	found, err := repo.exists(ctx, oid)
	if err != nil {
		return false, errors.Wrap(err, "finding course")
	}
	if !found {
		return false, course.ErrNotFound
	}
	return false, nil
}

func (repo *courseRepository) AddNote(ctx context.Context, courseID string, n course.Note) error {
	return repo.push(ctx, courseID, "notes", toNoteDoc(n))
}

func (repo *courseRepository) RemoveNote(ctx context.Context, courseID, noteID string) (bool, error) {
	return repo.pull(ctx, courseID, "notes", noteID)
}

func (repo *courseRepository) AddAssignment(ctx context.Context, courseID string, a course.Assignment) error {
	return repo.push(ctx, courseID, "assignments", toAssignmentDoc(a))
}

func (repo *courseRepository) ReplaceAssignment(ctx context.Context, courseID string, a course.Assignment) (bool, error) {
	return repo.replace(ctx, courseID, "assignments", a.ID, toAssignmentDoc(a))
}

func (repo *courseRepository) RemoveAssignment(ctx context.Context, courseID, assignmentID string) (bool, error) {
	return repo.pull(ctx, courseID, "assignments", assignmentID)
}

func (repo *courseRepository) AddAnnouncement(ctx context.Context, courseID string, a course.Announcement) error {
	return repo.push(ctx, courseID, "announcements", toAnnouncementDoc(a))
}

func (repo *courseRepository) ReplaceAnnouncement(ctx context.Context, courseID string, a course.Announcement) (bool, error) {
	return repo.replace(ctx, courseID, "announcements", a.ID, toAnnouncementDoc(a))
}

func (repo *courseRepository) RemoveAnnouncement(ctx context.Context, courseID, announcementID string) (bool, error) {
	return repo.pull(ctx, courseID, "announcements", announcementID)
}
