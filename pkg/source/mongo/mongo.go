// Package mongo serves prerequisite records and the course catalog from
// MongoDB.
//
// Collections:
//
//	prereq_dags  {course_id: int, prereq_dag_json: document | array | string | null}
//	courses      {course_id, course_code, title, description, credits, level,
//	              college, last_taught_term}
//
// prereq_dag_json may hold the record as a native document or as a JSON
// string; both are returned as JSON bytes.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/source"
)

// Collection names.
const (
	CollectionPrereqs = "prereq_dags"
	CollectionCourses = "courses"
)

// Source reads from a MongoDB database.
type Source struct {
	client  *mongo.Client
	prereqs *mongo.Collection
	courses *mongo.Collection
	owned   bool
}

var _ source.CatalogSource = (*Source)(nil)

// New connects to uri and uses the named database.
func New(ctx context.Context, uri, database string) (*Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "ping mongodb")
	}
	s := NewFromDatabase(client.Database(database))
	s.client, s.owned = client, true
	return s, nil
}

// NewFromDatabase wraps an existing database handle. Close leaves the
// client connected.
func NewFromDatabase(db *mongo.Database) *Source {
	return &Source{
		prereqs: db.Collection(CollectionPrereqs),
		courses: db.Collection(CollectionCourses),
	}
}

// Close disconnects the client if New created it.
func (s *Source) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type prereqDoc struct {
	CourseID int           `bson:"course_id"`
	Record   bson.RawValue `bson:"prereq_dag_json"`
}

// Prerequisites returns the record of a course as JSON.
func (s *Source) Prerequisites(ctx context.Context, courseID int) ([]byte, error) {
	if err := perrors.ValidateCourseID(courseID); err != nil {
		return nil, err
	}
	var doc prereqDoc
	err := s.prereqs.FindOne(ctx, bson.M{"course_id": courseID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, perrors.MissingData(courseID)
	}
	if err != nil {
		return nil, transient(err, "find prerequisites for course %d", courseID)
	}
	data, err := recordJSON(doc.Record)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "decode prerequisites for course %d", courseID)
	}
	return data, nil
}

// recordJSON converts a stored record into JSON bytes. Strings are returned
// verbatim; documents and arrays go through relaxed Extended JSON, which
// writes numbers as plain JSON numbers.
func recordJSON(v bson.RawValue) ([]byte, error) {
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return []byte("null"), nil
	case bsontype.String:
		return json.Marshal(v.StringValue())
	case bsontype.EmbeddedDocument, bsontype.Array:
		wrapped, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
		if err != nil {
			return nil, err
		}
		var out struct {
			V json.RawMessage `json:"v"`
		}
		if err := json.Unmarshal(wrapped, &out); err != nil {
			return nil, err
		}
		return out.V, nil
	}
	return nil, fmt.Errorf("unsupported record type %s", v.Type)
}

// Course implements catalog.Catalog.
func (s *Source) Course(ctx context.Context, id int) (*catalog.Course, error) {
	return s.findCourse(ctx, bson.M{"course_id": id})
}

// CourseByCode implements catalog.Catalog. Stored codes are expected in
// normalized form (see catalog.NormalizeCode).
func (s *Source) CourseByCode(ctx context.Context, code string) (*catalog.Course, error) {
	return s.findCourse(ctx, bson.M{"course_code": catalog.NormalizeCode(code)})
}

// Courses lists the whole catalog ordered by code.
func (s *Source) Courses(ctx context.Context) ([]catalog.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "course_code", Value: 1}, {Key: "course_id", Value: 1}})
	cur, err := s.courses.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, transient(err, "list courses")
	}
	var out []catalog.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, transient(err, "list courses")
	}
	return out, nil
}

func (s *Source) findCourse(ctx context.Context, filter bson.M) (*catalog.Course, error) {
	var c catalog.Course
	err := s.courses.FindOne(ctx, filter).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, transient(err, "find course")
	}
	return &c, nil
}

// transient marks a database failure as a retryable network error.
func transient(err error, format string, args ...any) error {
	return cache.Retryable(perrors.Wrap(perrors.ErrCodeNetwork, err, format, args...))
}
