package teacher

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classdrive/core"
)

// Subject statuses
const (
	SubjectActive   = "active"
	SubjectArchived = "archived"
)

type Teacher struct {
	ID        string     `json:"id" db:"id"`
	GoogleID  string     `json:"-" db:"google_id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Picture   string     `json:"picture" db:"picture"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"` // UTC
	LastLogin *time.Time `json:"last_login" db:"last_login"` // UTC
	Subjects  []Subject  `json:"subjects" db:"-"`            // active only
}

// Person identifies the teacher in log entries.
func (t Teacher) Person() core.Person {
	return core.Person{ID: t.ID, Username: t.Name, Email: t.Email}
}

type Subject struct {
	ID           string    `json:"id" db:"id"`
	TeacherID    string    `json:"-" db:"teacher_id"`
	SubjectName  string    `json:"subject_name" db:"subject_name"`
	AcademicYear string    `json:"academic_year" db:"academic_year"`
	Semester     string    `json:"semester" db:"semester"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// GoogleProfile is the identity returned by the Google login flow.
type GoogleProfile struct {
	GoogleID string `validate:"required"`
	Name     string
	Email    string `validate:"required,email"`
	Picture  string
}

func (p *GoogleProfile) Clean() {
	p.Name = core.CleanString(p.Name)
	p.Email = core.CleanString(p.Email, true /* lower */)
	p.Picture = core.CleanString(p.Picture)
}

// UpdateProfile defines what information may be provided to modify the current Teacher.
type UpdateProfile struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (up *UpdateProfile) Clean(orig Teacher) {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if pic := core.CleanString(up.Picture); pic != "" {
		up.Picture = pic
	} else {
		up.Picture = orig.Picture
	}
}

type NewSubject struct {
	SubjectName  string `json:"subject_name" validate:"required,notblank"`
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.SubjectName = core.CleanString(ns.SubjectName)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	ns.Semester = core.CleanString(ns.Semester)
	return validate.Struct(ns)
}

type ArchiveSubject struct {
	SubjectName string `json:"subject_name" validate:"required,notblank"`
}

func (as *ArchiveSubject) Validate(validate *validator.Validate) error {
	as.SubjectName = core.CleanString(as.SubjectName)
	return validate.Struct(as)
}
