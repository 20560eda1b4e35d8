package inmemdb

import (
	"sync"

	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
)

// DB is a process-local store used for local runs and tests.
type DB struct {
	mutex    sync.RWMutex
	teachers map[string]*teacher.Teacher
	subjects map[string]*teacher.Subject
	students map[string]*student.Student
}

func NewDB() *DB {
	db := new(DB)
	db.Reset()
	return db
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.teachers = make(map[string]*teacher.Teacher)
	db.subjects = make(map[string]*teacher.Subject)
	db.students = make(map[string]*student.Student)
}
