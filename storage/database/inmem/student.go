package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/classdrive/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// enrolled reports whether another student holds the (teacher, email, subject) key.
func (repo *studentRepository) enrolled(s student.Student) bool {
	for _, other := range repo.db.students {
		if other.ID != s.ID && other.TeacherID == s.TeacherID && other.Email == s.Email && other.SubjectName == s.SubjectName {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.enrolled(s) {
		return student.Student{}, student.ErrDuplicateEnrollment
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stds := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if filter.Match(*s) {
			stds = append(stds, *s)
		}
	}
	sort.Slice(stds, func(i, j int) bool {
		ni, nj := strings.ToLower(stds[i].Name), strings.ToLower(stds[j].Name)
		if ni == nj {
			return stds[i].CreatedAt.Before(stds[j].CreatedAt)
		}
		return ni < nj
	})
	return stds, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	cand := *orig
	cand.Name = s.Name
	cand.SubjectName = s.SubjectName
	cand.AuthorizationLink = s.AuthorizationLink
	if repo.enrolled(cand) {
		return student.Student{}, student.ErrDuplicateEnrollment
	}
	*orig = cand
	return cand, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	return nil
}

func (repo *studentRepository) StoreAuthorization(_ context.Context, id string, tok student.Tokens, at time.Time) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	expiry := tok.Expiry
	s.AccessToken = tok.AccessToken
	s.RefreshToken = tok.RefreshToken
	s.TokenExpiry = &expiry
	s.GoogleDriveConnected = true
	s.AuthorizedAt = &at
	return *s, nil
}

func (repo *studentRepository) UpdateTokens(_ context.Context, id string, tok student.Tokens) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	expiry := tok.Expiry
	s.AccessToken = tok.AccessToken
	s.TokenExpiry = &expiry
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	return *s, nil
}
