package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/matzehuels/prereqgraph/pkg/cache"
	"github.com/matzehuels/prereqgraph/pkg/catalog"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// newMockSource creates a Source over sqlmock with automatic cleanup and
// expectation checking.
func newMockSource(t *testing.T) (*Source, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewFromDB(db), mock
}

var courseRowColumns = []string{
	"course_id", "course_code", "title", "description", "credits", "level", "college", "last_taught_term",
}

func TestPrerequisites(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT prereq_dag_json FROM prereq_dags WHERE course_id = \\$1").WithArgs(300).
		WillReturnRows(sqlmock.NewRows([]string{"prereq_dag_json"}).AddRow([]byte(`{"nodes":[]}`)))

	data, err := s.Prerequisites(context.Background(), 300)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if string(data) != `{"nodes":[]}` {
		t.Errorf("data = %s", data)
	}
}

func TestPrerequisites_Null(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT prereq_dag_json FROM prereq_dags").WithArgs(12).
		WillReturnRows(sqlmock.NewRows([]string{"prereq_dag_json"}).AddRow(nil))

	data, err := s.Prerequisites(context.Background(), 12)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("data = %q, want null", data)
	}
}

func TestPrerequisites_Missing(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT prereq_dag_json FROM prereq_dags").WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Prerequisites(context.Background(), 999)
	if got := perrors.GetCode(err); got != perrors.ErrCodeMissingData {
		t.Errorf("code = %q, want %q", got, perrors.ErrCodeMissingData)
	}
}

func TestPrerequisites_Transient(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT prereq_dag_json FROM prereq_dags").WithArgs(300).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := s.Prerequisites(context.Background(), 300)
	if !cache.IsRetryable(err) {
		t.Errorf("err = %v, want retryable", err)
	}
	if perrors.GetCode(err) != perrors.ErrCodeNetwork {
		t.Errorf("code = %q, want %q", perrors.GetCode(err), perrors.ErrCodeNetwork)
	}
}

func TestPrerequisites_InvalidID(t *testing.T) {
	s, _ := newMockSource(t)
	_, err := s.Prerequisites(context.Background(), -1)
	if perrors.GetCode(err) != perrors.ErrCodeInvalidInput {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestCourse(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT .+ FROM courses WHERE course_id = \\$1").WithArgs(211).
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow(211, "MATH 211", "Calculus I", nil, 4.0, "lower", "Science", "2025FA"))

	c, err := s.Course(context.Background(), 211)
	if err != nil {
		t.Fatalf("Course: %v", err)
	}
	if c.Code != "MATH 211" || c.Unit != "Science" || c.LastOffered != "2025FA" {
		t.Errorf("course = %+v", c)
	}
	if c.Credits == nil || *c.Credits != 4 {
		t.Errorf("credits = %v", c.Credits)
	}
	if c.Description != "" {
		t.Errorf("description = %q, want empty for NULL", c.Description)
	}
}

func TestCourse_NotFound(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT .+ FROM courses WHERE course_id = \\$1").WithArgs(5).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.Course(context.Background(), 5); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want %v", err, catalog.ErrNotFound)
	}
}

func TestCourseByCode(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT .+ FROM courses WHERE upper").WithArgs("MATH 211").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow(211, "MATH 211", "Calculus I", nil, nil, nil, nil, nil))

	c, err := s.CourseByCode(context.Background(), "  math   211 ")
	if err != nil {
		t.Fatalf("CourseByCode: %v", err)
	}
	if c.ID != 211 || c.Credits != nil {
		t.Errorf("course = %+v", c)
	}
}

func TestCourses(t *testing.T) {
	s, mock := newMockSource(t)
	mock.ExpectQuery("SELECT .+ FROM courses ORDER BY course_code").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow(300, "CS 300", "Algorithms", nil, 4.0, nil, nil, nil).
			AddRow(211, "MATH 211", "Calculus I", nil, 4.0, nil, nil, nil))

	courses, err := s.Courses(context.Background())
	if err != nil {
		t.Fatalf("Courses: %v", err)
	}
	if len(courses) != 2 || courses[0].ID != 300 || courses[1].ID != 211 {
		t.Errorf("courses = %+v", courses)
	}
}
