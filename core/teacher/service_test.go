package teacher_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/teacher"
	inmemdb "github.com/trezcool/classdrive/storage/database/inmem"
	testutil "github.com/trezcool/classdrive/tests"
)

func newService(t *testing.T) (*teacher.Service, teacher.Repository) {
	conf := core.NewTestConfig()
	repo := inmemdb.NewTeacherRepository(inmemdb.NewDB())
	return teacher.NewService(conf, repo, testutil.NewValidator()), repo
}

func fieldNames(t *testing.T, err error) []string {
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), "want a validation error, got %v", err)
	var names []string
	for _, fld := range verr.Fields {
		names = append(names, fld.Field)
	}
	return names
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)

	profile := teacher.GoogleProfile{
		GoogleID: "g-1",
		Name:     " Ada Lovelace ",
		Email:    "Ada@Inst.edu",
		Picture:  "https://example.com/ada.png",
	}

	t.Run("first login creates the teacher", func(t *testing.T) {
		tch, err := svc.Login(ctx, profile)
		require.NoError(t, err)
		assert.NotEmpty(t, tch.ID)
		assert.Equal(t, "Ada Lovelace", tch.Name)
		assert.Equal(t, "ada@inst.edu", tch.Email)
		require.NotNil(t, tch.LastLogin)
		assert.Equal(t, []teacher.Subject{}, tch.Subjects)
	})

	t.Run("next login updates the profile", func(t *testing.T) {
		first, err := repo.GetTeacherByGoogleID(ctx, "g-1")
		require.NoError(t, err)

		now := time.Now().UTC().Add(time.Hour)
		origNow := teacher.NowFunc
		teacher.NowFunc = func() time.Time { return now }
		defer func() { teacher.NowFunc = origNow }()

		p := profile
		p.Picture = "https://example.com/ada2.png"
		tch, err := svc.Login(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, first.ID, tch.ID)
		assert.Equal(t, p.Picture, tch.Picture)
		assert.Equal(t, now, *tch.LastLogin)
	})

	t.Run("outside the institutional domain", func(t *testing.T) {
		p := profile
		p.GoogleID = "g-2"
		p.Email = "ada@gmail.com"
		_, err := svc.Login(ctx, p)
		assert.True(t, errors.Is(err, core.ErrDomainRejected))

		_, err = repo.GetTeacherByGoogleID(ctx, "g-2")
		assert.Equal(t, teacher.ErrNotFound, err)
	})

	t.Run("email taken by another google account", func(t *testing.T) {
		p := profile
		p.GoogleID = "g-3"
		_, err := svc.Login(ctx, p)
		assert.Equal(t, []string{"email"}, fieldNames(t, err))
	})

	t.Run("invalid profile", func(t *testing.T) {
		_, err := svc.Login(ctx, teacher.GoogleProfile{Email: "ada@inst.edu"})
		assert.Error(t, err)
	})
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	tch := testutil.CreateTeacher(t, repo, "Ada", "ada@inst.edu")

	got, err := svc.UpdateProfile(ctx, tch.ID, teacher.UpdateProfile{Name: "  ", Picture: "pic.png"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "pic.png", got.Picture)

	_, err = svc.UpdateProfile(ctx, "missing", teacher.UpdateProfile{Name: "x"})
	assert.Equal(t, teacher.ErrNotFound, err)
}

func TestService_Subjects(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	tch := testutil.CreateTeacher(t, repo, "Ada", "ada@inst.edu")
	other := testutil.CreateTeacher(t, repo, "Bea", "bea@inst.edu")

	sub, err := svc.AddSubject(ctx, tch.ID, teacher.NewSubject{SubjectName: " Physics ", AcademicYear: "2024-25", Semester: "5"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", sub.SubjectName)
	assert.Equal(t, teacher.SubjectActive, sub.Status)

	t.Run("duplicate active subject", func(t *testing.T) {
		_, err := svc.AddSubject(ctx, tch.ID, teacher.NewSubject{SubjectName: "Physics"})
		assert.Equal(t, []string{"subject_name"}, fieldNames(t, err))

		// subjects are per teacher
		_, err = svc.AddSubject(ctx, other.ID, teacher.NewSubject{SubjectName: "Physics"})
		assert.NoError(t, err)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := svc.AddSubject(ctx, tch.ID, teacher.NewSubject{SubjectName: "   "})
		assert.Error(t, err)
	})

	t.Run("archive", func(t *testing.T) {
		_, err := svc.AddSubject(ctx, tch.ID, teacher.NewSubject{SubjectName: "Chemistry"})
		require.NoError(t, err)

		archived, err := svc.ArchiveSubject(ctx, tch.ID, teacher.ArchiveSubject{SubjectName: "Physics"})
		require.NoError(t, err)
		assert.Equal(t, teacher.SubjectArchived, archived.Status)

		subs, err := svc.ListSubjects(ctx, tch.ID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "Chemistry", subs[0].SubjectName)

		_, err = svc.ArchiveSubject(ctx, tch.ID, teacher.ArchiveSubject{SubjectName: "Physics"})
		assert.Equal(t, teacher.ErrSubjectNotFound, err)

		// an archived name may be reused
		_, err = svc.AddSubject(ctx, tch.ID, teacher.NewSubject{SubjectName: "Physics"})
		assert.NoError(t, err)
	})

	t.Run("teacher carries active subjects", func(t *testing.T) {
		got, err := svc.GetByID(ctx, tch.ID)
		require.NoError(t, err)
		names := make([]string, 0, len(got.Subjects))
		for _, s := range got.Subjects {
			names = append(names, s.SubjectName)
		}
		assert.ElementsMatch(t, []string{"Chemistry", "Physics"}, names)
	})
}
