package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/classdrive/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, other := range repo.db.teachers {
		if other.Email == t.Email {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
	}
	t.Subjects = nil
	repo.db.teachers[t.ID] = &t
	return t, nil
}

func (repo *teacherRepository) GetTeacherByID(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return *t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByGoogleID(_ context.Context, googleID string) (teacher.Teacher, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.teachers {
		if t.GoogleID == googleID {
			return *t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teachers[t.ID]
	if !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	orig.Name = t.Name
	orig.Picture = t.Picture
	orig.LastLogin = t.LastLogin
	return *orig, nil
}

func (repo *teacherRepository) CreateSubject(_ context.Context, s teacher.Subject) (teacher.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.teachers[s.TeacherID]; !ok {
		return teacher.Subject{}, teacher.ErrNotFound
	}
	if s.Status == teacher.SubjectActive {
		for _, other := range repo.db.subjects {
			if other.TeacherID == s.TeacherID && other.SubjectName == s.SubjectName && other.Status == teacher.SubjectActive {
				return teacher.Subject{}, teacher.ErrSubjectExists
			}
		}
	}
	repo.db.subjects[s.ID] = &s
	return s, nil
}

func (repo *teacherRepository) QuerySubjects(_ context.Context, teacherID, status string) ([]teacher.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]teacher.Subject, 0)
	for _, s := range repo.db.subjects {
		if s.TeacherID == teacherID && (status == "" || s.Status == status) {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *teacherRepository) UpdateSubjectStatus(_ context.Context, teacherID, name, from, to string) (teacher.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.TeacherID == teacherID && s.SubjectName == name && s.Status == from {
			s.Status = to
			return *s, nil
		}
	}
	return teacher.Subject{}, teacher.ErrSubjectNotFound
}
