package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/teacher"
)

var (
	// errors
	ErrNotFound            = errors.New("student not found")
	ErrDuplicateEnrollment = errors.New("student already exists in your class for this subject")
	ErrAlreadyAuthorized   = errors.New("student is already authorized")

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		// CreateStudent fails with ErrDuplicateEnrollment when (teacher_id, email, subject_name) is taken.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryStudents returns the students matching filter, sorted by name.
		QueryStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		// UpdateStudent overwrites name, subject_name and authorization_link.
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error

		// StoreAuthorization saves the first set of tokens and marks the Student connected.
		StoreAuthorization(ctx context.Context, id string, tok Tokens, at time.Time) (Student, error)
		// UpdateTokens overwrites the access token and expiry. An empty refresh token keeps the stored one.
		UpdateTokens(ctx context.Context, id string, tok Tokens) (Student, error)
	}

	// LinkIssuer issues consent URLs for students.
	LinkIssuer interface {
		AuthURL(studentID string) string
	}

	Service struct {
		repo     Repository
		links    LinkIssuer
		notifier *Notifier
		validate *validator.Validate
		domain   string
	}
)

func NewService(conf *core.Config, repo Repository, links LinkIssuer, notifier *Notifier, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		links:    links,
		notifier: notifier,
		validate: validate,
		domain:   conf.InstitutionalDomain,
	}
}

// Create enrolls a Student for owner, issues a consent link and emails it.
// Email failures are reported in the result and never undo the enrollment.
func (svc *Service) Create(ctx context.Context, owner teacher.Teacher, ns NewStudent) (CreateResult, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return CreateResult{}, err
	}
	if !core.InDomain(ns.Email, svc.domain) {
		return CreateResult{}, core.NewDomainError(svc.domain)
	}
	if err := svc.checkEnrollment(ctx, owner.ID, ns.Email, ns.SubjectName); err != nil {
		return CreateResult{}, err
	}

	// the link is stored with the row so a student is never enrolled without one
	id := uuid.NewString()
	std, err := svc.repo.CreateStudent(ctx, Student{
		ID:                id,
		TeacherID:         owner.ID,
		Name:              ns.Name,
		Email:             ns.Email,
		SubjectName:       ns.SubjectName,
		AuthorizationLink: svc.links.AuthURL(id),
		CreatedAt:         NowFunc(),
	})
	if err != nil {
		return CreateResult{}, enrollmentError(err, "creating student")
	}

	res := svc.notifier.SendAuthorizationEmail(ctx, std.Email, std.Name, std.AuthorizationLink, owner.Name, std.SubjectName)
	return CreateResult{Student: std, EmailSent: res.Success}, nil
}

// List returns the Teacher's students, optionally restricted to one subject, sorted by name.
func (svc *Service) List(ctx context.Context, teacherID string, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	filter.TeacherID = teacherID
	stds, err := svc.repo.QueryStudents(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	if stds == nil {
		stds = []Student{}
	}
	return stds, nil
}

// Get returns the Student only when it belongs to the Teacher.
func (svc *Service) Get(ctx context.Context, teacherID, id string) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if std.TeacherID != teacherID {
		return Student{}, ErrNotFound
	}
	return std, nil
}

func (svc *Service) Update(ctx context.Context, teacherID, id string, us UpdateStudent) (Student, error) {
	std, err := svc.Get(ctx, teacherID, id)
	if err != nil {
		return Student{}, err
	}
	us.Clean(std)
	if us.SubjectName != std.SubjectName {
		if err := svc.checkEnrollment(ctx, teacherID, std.Email, us.SubjectName); err != nil {
			return Student{}, err
		}
	}
	std.Name = us.Name
	std.SubjectName = us.SubjectName
	if std, err = svc.repo.UpdateStudent(ctx, std); err != nil {
		return Student{}, enrollmentError(err, "updating student")
	}
	return std, nil
}

func (svc *Service) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := svc.Get(ctx, teacherID, id); err != nil {
		return err
	}
	return svc.repo.DeleteStudent(ctx, id)
}

// ResendAuth emails a reminder carrying a fresh consent link, superseding the previous one.
func (svc *Service) ResendAuth(ctx context.Context, owner teacher.Teacher, id string) (NotificationResult, error) {
	std, err := svc.Get(ctx, owner.ID, id)
	if err != nil {
		return NotificationResult{}, err
	}
	if std.GoogleDriveConnected {
		return NotificationResult{}, core.NewValidationError(ErrAlreadyAuthorized)
	}
	if std, err = svc.issueLink(ctx, std); err != nil {
		return NotificationResult{}, err
	}
	return svc.notifier.SendReminderEmail(ctx, std.Email, std.Name, std.AuthorizationLink, owner.Name, std.SubjectName), nil
}

// IssueLink stores and returns a fresh consent link for the Student.
func (svc *Service) IssueLink(ctx context.Context, id string) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	return svc.issueLink(ctx, std)
}

func (svc *Service) issueLink(ctx context.Context, std Student) (Student, error) {
	std.AuthorizationLink = svc.links.AuthURL(std.ID)
	std, err := svc.repo.UpdateStudent(ctx, std)
	if err != nil {
		return Student{}, errors.Wrap(err, "storing authorization link")
	}
	return std, nil
}

func (svc *Service) checkEnrollment(ctx context.Context, teacherID, email, subject string) error {
	existing, err := svc.repo.QueryStudents(ctx, QueryFilter{TeacherID: teacherID, Email: email, SubjectName: subject})
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if len(existing) > 0 {
		return duplicateError()
	}
	return nil
}

func duplicateError() error {
	return core.NewValidationError(ErrDuplicateEnrollment, core.FieldError{Field: "email", Error: ErrDuplicateEnrollment.Error()})
}

func enrollmentError(err error, msg string) error {
	if errors.Cause(err) == ErrDuplicateEnrollment {
		return duplicateError()
	}
	return errors.Wrap(err, msg)
}
