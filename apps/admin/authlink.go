package main

import (
	"context"
	"fmt"

	"github.com/pkg/browser"
)

var openURLFunc = browser.OpenURL // mockable

// authLink issues a fresh consent link for a student, superseding the previous one.
func (cli *commandLine) authLink(studentID string, open bool) error {
	std, err := cli.studentSvc.IssueLink(context.Background(), studentID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s <%s>\n%s\n", std.Name, std.Email, std.AuthorizationLink)
	if open {
		return openURLFunc(std.AuthorizationLink)
	}
	return nil
}
