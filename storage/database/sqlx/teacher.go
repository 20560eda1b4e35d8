package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core/teacher"
	"github.com/trezcool/classdrive/storage/database"
)

const (
	teacherColumns = `id, google_id, name, email, picture, created_at, last_login`
	subjectColumns = `id, teacher_id, subject_name, academic_year, semester, status, created_at`
)

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *sqlx.DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	q := `INSERT INTO teacher (` + teacherColumns + `)
		VALUES (:id, :google_id, :name, :email, :picture, :created_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, t); err != nil {
		if database.IsUniqueViolation(err) {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (repo *teacherRepository) getTeacher(ctx context.Context, where string, arg interface{}) (teacher.Teacher, error) {
	var t teacher.Teacher
	q := `SELECT ` + teacherColumns + ` FROM teacher WHERE ` + where
	if err := repo.db.GetContext(ctx, &t, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "selecting teacher")
	}
	return t, nil
}

func (repo *teacherRepository) GetTeacherByID(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.getTeacher(ctx, "id = $1", id)
}

func (repo *teacherRepository) GetTeacherByGoogleID(ctx context.Context, googleID string) (teacher.Teacher, error) {
	return repo.getTeacher(ctx, "google_id = $1", googleID)
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	q := `UPDATE teacher SET name = :name, picture = :picture, last_login = :last_login WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if err := checkSingleRow(res, "teacher", teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return repo.GetTeacherByID(ctx, t.ID)
}

func (repo *teacherRepository) CreateSubject(ctx context.Context, s teacher.Subject) (teacher.Subject, error) {
	q := `INSERT INTO subject (` + subjectColumns + `)
		VALUES (:id, :teacher_id, :subject_name, :academic_year, :semester, :status, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		if database.IsUniqueViolation(err) {
			return teacher.Subject{}, teacher.ErrSubjectExists
		}
		return teacher.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return s, nil
}

func (repo *teacherRepository) QuerySubjects(ctx context.Context, teacherID, status string) ([]teacher.Subject, error) {
	subs := make([]teacher.Subject, 0)
	q := `SELECT ` + subjectColumns + ` FROM subject WHERE teacher_id = $1 AND status = $2 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &subs, q, teacherID, status); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return subs, nil
}

func (repo *teacherRepository) UpdateSubjectStatus(ctx context.Context, teacherID, name, from, to string) (teacher.Subject, error) {
	var s teacher.Subject
	q := `UPDATE subject SET status = $4
		WHERE id = (
			SELECT id FROM subject WHERE teacher_id = $1 AND subject_name = $2 AND status = $3
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING ` + subjectColumns
	if err := repo.db.GetContext(ctx, &s, q, teacherID, name, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
			return teacher.Subject{}, teacher.ErrSubjectNotFound
		}
		if database.IsUniqueViolation(err) {
			return teacher.Subject{}, teacher.ErrSubjectExists
		}
		return teacher.Subject{}, errors.Wrap(err, "updating subject status")
	}
	return s, nil
}
