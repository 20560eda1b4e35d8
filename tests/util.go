package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
)

// NewValidator returns a validator with the app's custom rules and translations registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

func CreateTeacher(t *testing.T, repo teacher.Repository, name, email string, createdAt ...time.Time) teacher.Teacher {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	tch, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		ID:        uuid.NewString(),
		GoogleID:  "g-" + uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateSubject(t *testing.T, repo teacher.Repository, teacherID, name string) teacher.Subject {
	sub, err := repo.CreateSubject(context.Background(), teacher.Subject{
		ID:          uuid.NewString(),
		TeacherID:   teacherID,
		SubjectName: name,
		Status:      teacher.SubjectActive,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateStudent(t *testing.T, repo student.Repository, teacherID, name, email, subject string, createdAt ...time.Time) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std, err := repo.CreateStudent(context.Background(), student.Student{
		ID:          uuid.NewString(),
		TeacherID:   teacherID,
		Name:        name,
		Email:       email,
		SubjectName: subject,
		CreatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// ConnectStudent stores tokens for std as if the consent flow had completed.
func ConnectStudent(t *testing.T, repo student.Repository, std student.Student, tok student.Tokens) student.Student {
	if tok.RefreshToken == "" {
		tok.RefreshToken = "refresh-" + std.ID
	}
	if tok.AccessToken == "" {
		tok.AccessToken = "access-" + std.ID
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().UTC().Add(time.Hour)
	}
	std, err := repo.StoreAuthorization(context.Background(), std.ID, tok, time.Now().UTC())
	if err != nil {
		t.Fatalf("ConnectStudent() failed: %v", err)
	}
	return std
}
