// Package postgres serves prerequisite records and the course catalog from
// PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE courses (
//	    course_id        integer PRIMARY KEY,
//	    course_code      text NOT NULL,
//	    title            text,
//	    description      text,
//	    credits          numeric,
//	    level            text,
//	    college          text,
//	    last_taught_term text
//	);
//	CREATE TABLE prereq_dags (
//	    course_id       integer PRIMARY KEY REFERENCES courses,
//	    prereq_dag_json jsonb
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/source"
)

// Source reads from a PostgreSQL database.
type Source struct {
	db *sql.DB
}

// Compile-time check that Source implements source.CatalogSource.
var _ source.CatalogSource = (*Source)(nil)

// New opens a connection pool to the database at databaseURL and verifies it
// with a ping.
func New(ctx context.Context, databaseURL string) (*Source, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "ping database")
	}
	return &Source{db: db}, nil
}

// NewFromDB wraps an open database handle.
func NewFromDB(db *sql.DB) *Source {
	return &Source{db: db}
}

// Close closes the underlying database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

const queryPrerequisites = `SELECT prereq_dag_json FROM prereq_dags WHERE course_id = $1`

// Prerequisites returns the prereq_dag_json column for a course. A missing
// row is MISSING_DATA; a NULL column is returned as "null".
func (s *Source) Prerequisites(ctx context.Context, courseID int) ([]byte, error) {
	if err := perrors.ValidateCourseID(courseID); err != nil {
		return nil, err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx, queryPrerequisites, courseID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, perrors.MissingData(courseID)
	}
	if err != nil {
		return nil, transient(err, "query prerequisites for course %d", courseID)
	}
	if raw == nil {
		return []byte("null"), nil
	}
	return raw, nil
}

const courseColumns = `course_id, course_code, title, description, credits, level, college, last_taught_term`

// Course implements catalog.Catalog.
func (s *Source) Course(ctx context.Context, id int) (*catalog.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE course_id = $1`, id)
	return scanCourse(row)
}

// CourseByCode implements catalog.Catalog. Codes are compared after
// normalization on both sides.
func (s *Source) CourseByCode(ctx context.Context, code string) (*catalog.Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE upper(regexp_replace(trim(course_code), '\s+', ' ', 'g')) = $1`,
		catalog.NormalizeCode(code))
	return scanCourse(row)
}

// Courses lists the whole catalog ordered by code.
func (s *Source) Courses(ctx context.Context) ([]catalog.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY course_code, course_id`)
	if err != nil {
		return nil, transient(err, "list courses")
	}
	defer rows.Close()

	var out []catalog.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, transient(err, "list courses")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*catalog.Course, error) {
	var (
		c                                        catalog.Course
		title, desc, level, college, lastTaught sql.NullString
		credits                                  sql.NullFloat64
	)
	err := row.Scan(&c.ID, &c.Code, &title, &desc, &credits, &level, &college, &lastTaught)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, transient(err, "scan course")
	}
	c.Title = title.String
	c.Description = desc.String
	c.Level = level.String
	c.Unit = college.String
	c.LastOffered = lastTaught.String
	if credits.Valid {
		v := credits.Float64
		c.Credits = &v
	}
	return &c, nil
}

// transient marks a database failure as a retryable network error.
func transient(err error, format string, args ...any) error {
	return cache.Retryable(perrors.Wrap(perrors.ErrCodeNetwork, err, format, args...))
}
