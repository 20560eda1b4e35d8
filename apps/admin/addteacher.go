package main

import (
	"context"

	"github.com/trezcool/classdrive/core/teacher"
)

// addTeacher registers a teacher ahead of their first Google sign-in, or refreshes their profile.
func (cli *commandLine) addTeacher(googleID, name, email string) (teacher.Teacher, error) {
	return cli.teacherSvc.Login(context.Background(), teacher.GoogleProfile{
		GoogleID: googleID,
		Name:     name,
		Email:    email,
	})
}
