package drive

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
	logsvc "github.com/trezcool/classdrive/services/logger"
	inmemdb "github.com/trezcool/classdrive/storage/database/inmem"
	testutil "github.com/trezcool/classdrive/tests"
)

type dispatcherFixture struct {
	repo       student.Repository
	drives     *fakeDrives
	dispatcher *Dispatcher
	teacher    teacher.Teacher
	other      teacher.Teacher
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	conf := core.NewTestConfig()
	conf.Upload.MaxFileSize = 1024

	db := inmemdb.NewDB()
	teachers := inmemdb.NewTeacherRepository(db)
	repo := inmemdb.NewStudentRepository(db)
	drives := newFakeDrives()
	clients := NewClientFactory(repo, new(fakeRefresher), drives.newClient)

	return &dispatcherFixture{
		repo:       repo,
		drives:     drives,
		dispatcher: NewDispatcher(conf, repo, clients, logsvc.NewNopLogger()),
		teacher:    testutil.CreateTeacher(t, teachers, "Ada", "ada@inst.edu"),
		other:      testutil.CreateTeacher(t, teachers, "Bea", "bea@inst.edu"),
	}
}

// connected enrolls and connects a student of teacherID. Its drive is reachable with f.drive(std).
func (f *dispatcherFixture) connected(t *testing.T, teacherID, name string) student.Student {
	std := testutil.CreateStudent(t, f.repo, teacherID, name, name+"@inst.edu", "Physics")
	return testutil.ConnectStudent(t, f.repo, std, student.Tokens{AccessToken: "access-" + name})
}

func (f *dispatcherFixture) drive(std student.Student) *fakeDrive {
	return f.drives.get(std.AccessToken)
}

func upload(ids ...string) Upload {
	return Upload{
		FileName:     "notes.pdf",
		MimeType:     "application/pdf",
		Content:      []byte("%PDF-1.4"),
		SubjectName:  "Physics",
		DocumentType: "Notes",
		StudentIDs:   ids,
	}
}

func TestDispatcher_Validation(t *testing.T) {
	f := newDispatcherFixture(t)
	std := f.connected(t, f.teacher.ID, "sam")

	tests := map[string]struct {
		up     func() Upload
		fields []string
	}{
		"no file": {
			up:     func() Upload { up := upload(std.ID); up.Content = nil; return up },
			fields: []string{"file"},
		},
		"too large": {
			up:     func() Upload { up := upload(std.ID); up.Content = make([]byte, 2048); return up },
			fields: []string{"file"},
		},
		"missing names": {
			up:     func() Upload { up := upload(std.ID); up.SubjectName = " "; up.DocumentType = ""; return up },
			fields: []string{"subject_name", "document_type"},
		},
		"no students": {
			up:     func() Upload { return upload(" ", "") },
			fields: []string{"student_ids"},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.dispatcher.Distribute(context.Background(), f.teacher.ID, tt.up())

			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr))
			var fields []string
			for _, fld := range verr.Fields {
				fields = append(fields, fld.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
	assert.Equal(t, 0, f.drives.built())
}

func TestDispatcher_NoAuthorizedStudents(t *testing.T) {
	f := newDispatcherFixture(t)
	pending := testutil.CreateStudent(t, f.repo, f.teacher.ID, "Pat", "pat@inst.edu", "Physics")
	foreign := f.connected(t, f.other.ID, "zoe")

	_, err := f.dispatcher.Distribute(context.Background(), f.teacher.ID, upload(pending.ID, foreign.ID, "unknown"))
	assert.True(t, errors.Is(err, ErrNoAuthorizedStudents))
	assert.Equal(t, 0, f.drives.built())
}

func TestDispatcher_Distribute(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)

	sam := f.connected(t, f.teacher.ID, "sam")
	amy := f.connected(t, f.teacher.ID, "amy")
	kim := f.connected(t, f.teacher.ID, "kim")
	pending := testutil.CreateStudent(t, f.repo, f.teacher.ID, "Pat", "pat@inst.edu", "Physics")
	foreign := f.connected(t, f.other.ID, "zoe")

	f.drive(amy).findErr = errors.New("quota exceeded")

	sum, err := f.dispatcher.Distribute(ctx, f.teacher.ID, upload(sam.ID, amy.ID, pending.ID, kim.ID, sam.ID, foreign.ID))
	require.NoError(t, err)

	assert.True(t, sum.Success)
	assert.Equal(t, "notes.pdf", sum.FileName)
	assert.Equal(t, int64(8), sum.FileSize)
	assert.Equal(t, 5, sum.TotalStudents)
	assert.Equal(t, 2, sum.SuccessCount)
	assert.Equal(t, 1, sum.FailCount)
	assert.Equal(t, "Upload complete: 2 successful, 1 failed", sum.Message)
	assert.Equal(t, []string{pending.ID, foreign.ID}, sum.Skipped)

	// results follow the request order
	require.Len(t, sum.Results, 3)
	assert.Equal(t, sam.ID, sum.Results[0].StudentID)
	assert.Equal(t, amy.ID, sum.Results[1].StudentID)
	assert.Equal(t, kim.ID, sum.Results[2].StudentID)

	failed := sum.Results[1]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "quota exceeded")
	assert.Empty(t, failed.FileID)

	for _, r := range []Result{sum.Results[0], sum.Results[2]} {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.NotEmpty(t, r.FileID)
		assert.NotEmpty(t, r.WebViewLink)
		assert.Empty(t, r.Error)
	}

	// every successful student got the file under <root>/<subject>/<document type>
	for _, std := range []student.Student{sam, kim} {
		d := f.drive(std)
		require.Len(t, d.uploads, 1)
		assert.Equal(t, []string{"SLRTCE Files", "Physics", "Notes"}, d.path(d.uploads[0].parent))
		assert.Equal(t, "application/pdf", d.uploads[0].mimeType)
		assert.Equal(t, []byte("%PDF-1.4"), d.uploads[0].content)
	}
	assert.Empty(t, f.drive(foreign).uploads)

	t.Run("second upload reuses folders", func(t *testing.T) {
		sum, err := f.dispatcher.Distribute(ctx, f.teacher.ID, upload(sam.ID))
		require.NoError(t, err)
		assert.Equal(t, 1, sum.SuccessCount)
		assert.Equal(t, 3, f.drive(sam).creates)
		assert.Len(t, f.drive(sam).uploads, 2)
	})
}

func TestDispatcher_UploadFailureIsIsolated(t *testing.T) {
	f := newDispatcherFixture(t)
	sam := f.connected(t, f.teacher.ID, "sam")
	amy := f.connected(t, f.teacher.ID, "amy")
	f.drive(sam).uploadErr = errors.New("connection reset")

	sum, err := f.dispatcher.Distribute(context.Background(), f.teacher.ID, upload(sam.ID, amy.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SuccessCount)
	assert.Equal(t, 1, sum.FailCount)
	assert.Contains(t, sum.Results[0].Error, ErrUploadTransport.Error())
	assert.Equal(t, StatusSuccess, sum.Results[1].Status)
}

func TestDispatcher_FolderCreationFailureIsIsolated(t *testing.T) {
	f := newDispatcherFixture(t)
	sam := f.connected(t, f.teacher.ID, "sam")
	amy := f.connected(t, f.teacher.ID, "amy")
	f.drive(sam).createErr = errors.New("insufficient permissions")

	sum, err := f.dispatcher.Distribute(context.Background(), f.teacher.ID, upload(sam.ID, amy.ID))
	require.NoError(t, err)
	assert.True(t, sum.Success)
	assert.Equal(t, 1, sum.SuccessCount)
	assert.Equal(t, 1, sum.FailCount)

	failed := sum.Results[0]
	assert.Equal(t, sam.ID, failed.StudentID)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, ErrFolderResolution.Error())
	assert.Contains(t, failed.Error, "insufficient permissions")
	assert.Empty(t, f.drive(sam).uploads)

	assert.Equal(t, StatusSuccess, sum.Results[1].Status)
	d := f.drive(amy)
	require.Len(t, d.uploads, 1)
	assert.Equal(t, []string{"SLRTCE Files", "Physics", "Notes"}, d.path(d.uploads[0].parent))
}
