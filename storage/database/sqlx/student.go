package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/storage/database"
)

const studentColumns = `id, teacher_id, name, email, subject_name, google_drive_connected,
	access_token, refresh_token, token_expiry, authorization_link, authorized_at, created_at`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :teacher_id, :name, :email, :subject_name, :google_drive_connected,
			:access_token, :refresh_token, :token_expiry, :authorization_link, :authorized_at, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		if database.IsUniqueViolation(err) {
			return student.Student{}, student.ErrDuplicateEnrollment
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var s student.Student
	q := `SELECT ` + studentColumns + ` FROM student WHERE id = $1`
	if err := repo.db.GetContext(ctx, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "selecting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	stds := make([]student.Student, 0)
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return stds, nil
	}

	var (
		conds []string
		args  []interface{}
	)
	if filter.TeacherID != "" {
		conds = append(conds, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.IDs != nil {
		conds = append(conds, "id::text IN (?)")
		args = append(args, filter.IDs)
	}
	if filter.SubjectName != "" {
		conds = append(conds, "subject_name = ?")
		args = append(args, filter.SubjectName)
	}
	if filter.Email != "" {
		conds = append(conds, "email = ?")
		args = append(args, filter.Email)
	}
	if filter.Connected != nil {
		conds = append(conds, "google_drive_connected = ?")
		args = append(args, *filter.Connected)
	}

	q := `SELECT ` + studentColumns + ` FROM student`
	if conds != nil {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY lower(name), created_at`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}
	if err = repo.db.SelectContext(ctx, &stds, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return stds, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `UPDATE student SET name = :name, subject_name = :subject_name, authorization_link = :authorization_link
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, s)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return student.Student{}, student.ErrDuplicateEnrollment
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err := checkSingleRow(res, "student", student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return repo.GetStudent(ctx, s.ID)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkSingleRow(res, "student", student.ErrNotFound)
}

func (repo *studentRepository) StoreAuthorization(ctx context.Context, id string, tok student.Tokens, at time.Time) (student.Student, error) {
	var s student.Student
	q := `UPDATE student
		SET access_token = $2, refresh_token = $3, token_expiry = $4, google_drive_connected = TRUE, authorized_at = $5
		WHERE id = $1
		RETURNING ` + studentColumns
	if err := repo.db.GetContext(ctx, &s, q, id, tok.AccessToken, tok.RefreshToken, tok.Expiry, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "storing authorization")
	}
	return s, nil
}

func (repo *studentRepository) UpdateTokens(ctx context.Context, id string, tok student.Tokens) (student.Student, error) {
	var s student.Student
	q := `UPDATE student
		SET access_token = $2, token_expiry = $3, refresh_token = COALESCE(NULLIF($4::text, ''), refresh_token)
		WHERE id = $1
		RETURNING ` + studentColumns
	if err := repo.db.GetContext(ctx, &s, q, id, tok.AccessToken, tok.Expiry, tok.RefreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) || database.IsInvalidInput(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating tokens")
	}
	return s, nil
}
