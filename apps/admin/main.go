package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
	emailsvc "github.com/trezcool/classdrive/services/email"
	logsvc "github.com/trezcool/classdrive/services/logger"
	"github.com/trezcool/classdrive/storage/database"
	sqlxrepos "github.com/trezcool/classdrive/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf, "ADMIN")
	if err != nil {
		panic(err)
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatal("pinging database", err)
	}

	// set up services
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	teachers := sqlxrepos.NewTeacherRepository(db)
	students := sqlxrepos.NewStudentRepository(db)
	authorizer := drive.NewAuthorizer(conf, students)
	notifier := student.NewNotifier(conf, emailsvc.NewConsoleService(conf), logger)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		teacherSvc: teacher.NewService(conf, teachers, validate),
		studentSvc: student.NewService(conf, students, authorizer, notifier, validate),
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("running command", err)
		}
		os.Exit(1)
	}
}
