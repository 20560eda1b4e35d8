package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB
	teacherSvc *teacher.Service
	studentSvc *student.Service
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)")
	fmt.Println("  addteacher -googleid ID -email EMAIL [-name NAME] - register a teacher ahead of their first sign-in")
	fmt.Println("  authlink -student ID [-open] - issue a fresh Google Drive consent link for a student")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := flag.NewFlagSet("addteacher", flag.ContinueOnError)
	addTeacherGoogleID := addTeacherCmd.String("googleid", "", "The teacher's Google account ID.")
	addTeacherEmail := addTeacherCmd.String("email", "", "The teacher's institutional email.")
	addTeacherName := addTeacherCmd.String("name", "", "The teacher's display name.")

	authLinkCmd := flag.NewFlagSet("authlink", flag.ContinueOnError)
	authLinkStudent := authLinkCmd.String("student", "", "The student's ID.")
	authLinkOpen := authLinkCmd.Bool("open", false, "Open the link in the default browser.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addteacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTeacherGoogleID == "" || *addTeacherEmail == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		t, err := cli.addTeacher(*addTeacherGoogleID, *addTeacherName, *addTeacherEmail)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "teacher %s <%s> saved with ID %s\n", t.Name, t.Email, t.ID)
		return nil
	case "authlink":
		if err := authLinkCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *authLinkStudent == "" {
			authLinkCmd.Usage()
			return errHelp
		}
		return cli.authLink(*authLinkStudent, *authLinkOpen)
	default:
		cli.printUsage()
		return errHelp
	}
}
