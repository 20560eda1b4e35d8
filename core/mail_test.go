package core

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authData struct {
	StudentName string
	TeacherName string
	SubjectName string
	AuthURL     string
	Domain      string
}

func TestEmailMessage_Render(t *testing.T) {
	conf := NewTestConfig()
	data := authData{
		StudentName: "Sam",
		TeacherName: "Ms. T",
		SubjectName: "Algorithms",
		AuthURL:     "https://accounts.example.com/auth?state=x&y=1",
		Domain:      "inst.edu",
	}

	t.Run("templated", func(t *testing.T) {
		msg := &EmailMessage{
			To:           []mail.Address{{Name: "Sam", Address: "s1@inst.edu"}},
			Subject:      "Authorize",
			TemplateName: "student_authorization",
			TemplateData: data,
		}
		require.NoError(t, msg.Render(conf))
		assert.True(t, msg.HasContent())
		assert.Contains(t, msg.TextContent, "Hello Sam,")
		assert.Contains(t, msg.TextContent, data.AuthURL)
		assert.Contains(t, msg.HTMLContent, "Algorithms")
		assert.True(t, strings.HasPrefix(msg.HTMLContent, "<!DOCTYPE html>"))
	})

	t.Run("reminder", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "student_reminder", TemplateData: data}
		require.NoError(t, msg.Render(conf))
		assert.Contains(t, msg.TextContent, "haven't authorized")
	})

	t.Run("plain body", func(t *testing.T) {
		msg := &EmailMessage{BodyStr: "hi"}
		require.NoError(t, msg.Render(conf))
		assert.Equal(t, "hi", msg.TextContent)
		assert.Empty(t, msg.HTMLContent)
	})

	t.Run("unknown template", func(t *testing.T) {
		msg := &EmailMessage{TemplateName: "nope"}
		assert.Error(t, msg.Render(conf))
	})
}

func TestEmailMessage_Attach(t *testing.T) {
	msg := new(EmailMessage)
	require.NoError(t, msg.Attach(strings.NewReader("hello"), "hello.txt", "text/plain"))
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "aGVsbG8=", msg.Attachments[0].Content.String())
	assert.Equal(t, "text/plain", msg.Attachments[0].ContentType)
	assert.True(t, msg.HasAttachments())
}
