package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classdrive/core"
)

// Student is enrolled by exactly one teacher in one subject.
// The token columns are the per-student credential store and never leave the server.
type Student struct {
	ID                   string     `json:"id" db:"id"`
	TeacherID            string     `json:"teacher_id" db:"teacher_id"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	SubjectName          string     `json:"subject_name" db:"subject_name"`
	GoogleDriveConnected bool       `json:"google_drive_connected" db:"google_drive_connected"`
	AccessToken          string     `json:"-" db:"access_token"`
	RefreshToken         string     `json:"-" db:"refresh_token"`
	TokenExpiry          *time.Time `json:"-" db:"token_expiry"`
	AuthorizationLink    string     `json:"authorization_link" db:"authorization_link"`
	AuthorizedAt         *time.Time `json:"authorized_at" db:"authorized_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// Tokens are the provider credentials stored for a Student.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Tokens returns the stored credentials.
func (s Student) Tokens() Tokens {
	tok := Tokens{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	if s.TokenExpiry != nil {
		tok.Expiry = *s.TokenExpiry
	}
	return tok
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name        string `json:"name" validate:"required,notblank"`
	Email       string `json:"email" validate:"required,email"`
	SubjectName string `json:"subject_name" validate:"required,notblank"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.SubjectName = core.CleanString(ns.SubjectName)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name        string `json:"name"`
	SubjectName string `json:"subject_name"`
}

func (us *UpdateStudent) Clean(orig Student) {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if sub := core.CleanString(us.SubjectName); sub != "" {
		us.SubjectName = sub
	} else {
		us.SubjectName = orig.SubjectName
	}
}

// QueryFilter applies AND on every set field.
type QueryFilter struct {
	TeacherID   string
	IDs         []string
	SubjectName string `query:"subject_name"`
	Email       string
	Connected   *bool
}

func (qf *QueryFilter) Clean() {
	qf.SubjectName = core.CleanString(qf.SubjectName)
	qf.Email = core.CleanString(qf.Email, true /* lower */)
}

// Match reports whether s satisfies the filter.
func (qf QueryFilter) Match(s Student) bool {
	if qf.TeacherID != "" && s.TeacherID != qf.TeacherID {
		return false
	}
	if qf.SubjectName != "" && s.SubjectName != qf.SubjectName {
		return false
	}
	if qf.Email != "" && s.Email != qf.Email {
		return false
	}
	if qf.Connected != nil && s.GoogleDriveConnected != *qf.Connected {
		return false
	}
	if qf.IDs != nil {
		for _, id := range qf.IDs {
			if id == s.ID {
				return true
			}
		}
		return false
	}
	return true
}

// CreateResult is returned when a Student is enrolled.
type CreateResult struct {
	Student   Student `json:"student"`
	EmailSent bool    `json:"email_sent"`
}
