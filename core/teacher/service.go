package teacher

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
)

var (
	// errors
	ErrNotFound        = errors.New("teacher not found")
	ErrEmailExists     = errors.New("a teacher with this email already exists")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrSubjectExists   = errors.New("subject already exists")

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		CreateTeacher(ctx context.Context, t Teacher) (Teacher, error)
		GetTeacherByID(ctx context.Context, id string) (Teacher, error)
		GetTeacherByGoogleID(ctx context.Context, googleID string) (Teacher, error)
		// UpdateTeacher overwrites name, picture and last_login.
		UpdateTeacher(ctx context.Context, t Teacher) (Teacher, error)

		// CreateSubject fails with ErrSubjectExists when an active subject with the same name exists.
		CreateSubject(ctx context.Context, s Subject) (Subject, error)
		QuerySubjects(ctx context.Context, teacherID, status string) ([]Subject, error)
		// UpdateSubjectStatus moves the `from` subject named `name` to status `to`.
		UpdateSubjectStatus(ctx context.Context, teacherID, name, from, to string) (Subject, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		domain   string
	}
)

func NewService(conf *core.Config, repo Repository, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		validate: validate,
		domain:   conf.InstitutionalDomain,
	}
}

// Login finds or creates the Teacher behind a Google identity and records the login.
// Identities outside the institutional domain are rejected before anything is stored.
func (svc *Service) Login(ctx context.Context, p GoogleProfile) (Teacher, error) {
	p.Clean()
	if err := svc.validate.Struct(p); err != nil {
		return Teacher{}, err
	}
	if !core.InDomain(p.Email, svc.domain) {
		return Teacher{}, core.NewDomainError(svc.domain)
	}

	now := NowFunc()
	t, err := svc.repo.GetTeacherByGoogleID(ctx, p.GoogleID)
	switch {
	case err == nil:
		if p.Name != "" {
			t.Name = p.Name
		}
		t.Picture = p.Picture
		t.LastLogin = &now
		if t, err = svc.repo.UpdateTeacher(ctx, t); err != nil {
			return Teacher{}, errors.Wrap(err, "updating teacher")
		}
	case errors.Cause(err) == ErrNotFound:
		name := p.Name
		if name == "" {
			name = p.Email
		}
		t, err = svc.repo.CreateTeacher(ctx, Teacher{
			ID:        uuid.NewString(),
			GoogleID:  p.GoogleID,
			Name:      name,
			Email:     p.Email,
			Picture:   p.Picture,
			CreatedAt: now,
			LastLogin: &now,
		})
		if err != nil {
			if errors.Cause(err) == ErrEmailExists {
				return Teacher{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
			}
			return Teacher{}, errors.Wrap(err, "creating teacher")
		}
	default:
		return Teacher{}, errors.Wrap(err, "finding teacher by google id")
	}
	return svc.withSubjects(ctx, t)
}

// GetByID returns the Teacher along with their active subjects.
func (svc *Service) GetByID(ctx context.Context, id string) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	return svc.withSubjects(ctx, t)
}

func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (Teacher, error) {
	t, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	up.Clean(t)
	t.Name = up.Name
	t.Picture = up.Picture
	if t, err = svc.repo.UpdateTeacher(ctx, t); err != nil {
		return Teacher{}, errors.Wrap(err, "updating teacher")
	}
	return svc.withSubjects(ctx, t)
}

// AddSubject adds an active subject; a second active subject with the same name is rejected.
func (svc *Service) AddSubject(ctx context.Context, teacherID string, ns NewSubject) (Subject, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Subject{}, err
	}
	sub, err := svc.repo.CreateSubject(ctx, Subject{
		ID:           uuid.NewString(),
		TeacherID:    teacherID,
		SubjectName:  ns.SubjectName,
		AcademicYear: ns.AcademicYear,
		Semester:     ns.Semester,
		Status:       SubjectActive,
		CreatedAt:    NowFunc(),
	})
	if err != nil {
		if errors.Cause(err) == ErrSubjectExists {
			return Subject{}, core.NewValidationError(err, core.FieldError{Field: "subject_name", Error: err.Error()})
		}
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return sub, nil
}

// ListSubjects returns the active subjects of the Teacher.
func (svc *Service) ListSubjects(ctx context.Context, teacherID string) ([]Subject, error) {
	subs, err := svc.repo.QuerySubjects(ctx, teacherID, SubjectActive)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []Subject{}
	}
	return subs, nil
}

func (svc *Service) ArchiveSubject(ctx context.Context, teacherID string, as ArchiveSubject) (Subject, error) {
	if err := as.Validate(svc.validate); err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubjectStatus(ctx, teacherID, as.SubjectName, SubjectActive, SubjectArchived)
}

func (svc *Service) withSubjects(ctx context.Context, t Teacher) (Teacher, error) {
	subs, err := svc.ListSubjects(ctx, t.ID)
	if err != nil {
		return Teacher{}, err
	}
	t.Subjects = subs
	return t, nil
}
