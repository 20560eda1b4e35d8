package drive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classdrive/core/student"
	inmemdb "github.com/trezcool/classdrive/storage/database/inmem"
	testutil "github.com/trezcool/classdrive/tests"
)

type factoryFixture struct {
	repo      student.Repository
	refresher *fakeRefresher
	drives    *fakeDrives
	factory   *ClientFactory
	std       student.Student
}

func newFactoryFixture(t *testing.T) *factoryFixture {
	db := inmemdb.NewDB()
	tch := testutil.CreateTeacher(t, inmemdb.NewTeacherRepository(db), "Ada", "ada@inst.edu")
	repo := inmemdb.NewStudentRepository(db)
	f := &factoryFixture{
		repo:      repo,
		refresher: new(fakeRefresher),
		drives:    newFakeDrives(),
		std:       testutil.CreateStudent(t, repo, tch.ID, "Sam", "sam@inst.edu", "Physics"),
	}
	f.factory = NewClientFactory(repo, f.refresher, f.drives.newClient)
	return f
}

func TestClientFactory_Client(t *testing.T) {
	ctx := context.Background()

	t.Run("not authorized", func(t *testing.T) {
		f := newFactoryFixture(t)

		_, err := f.factory.Client(ctx, f.std)
		assert.True(t, errors.Is(err, ErrNotAuthorized))
		assert.Equal(t, 0, f.refresher.count())
		assert.Equal(t, 0, f.drives.built())
	})

	t.Run("fresh token is used as is", func(t *testing.T) {
		f := newFactoryFixture(t)
		std := testutil.ConnectStudent(t, f.repo, f.std, student.Tokens{AccessToken: "live"})

		c, err := f.factory.Client(ctx, std)
		require.NoError(t, err)
		assert.Same(t, f.drives.get("live"), c)
		assert.Equal(t, 0, f.refresher.count())
	})

	t.Run("expired token is refreshed and persisted", func(t *testing.T) {
		f := newFactoryFixture(t)
		std := testutil.ConnectStudent(t, f.repo, f.std, student.Tokens{
			AccessToken:  "stale",
			RefreshToken: "refresh-sam",
			Expiry:       time.Now().UTC().Add(-time.Minute),
		})

		c, err := f.factory.Client(ctx, std)
		require.NoError(t, err)
		assert.Equal(t, 1, f.refresher.count())
		assert.Same(t, f.drives.get("refreshed-1"), c)

		stored, err := f.repo.GetStudent(ctx, std.ID)
		require.NoError(t, err)
		assert.Equal(t, "refreshed-1", stored.AccessToken)
		assert.Equal(t, "refresh-sam", stored.RefreshToken)
		assert.True(t, stored.TokenExpiry.After(time.Now()))
	})

	t.Run("refresh failure leaves the store untouched", func(t *testing.T) {
		f := newFactoryFixture(t)
		f.refresher.err = errors.New("invalid_grant")
		std := testutil.ConnectStudent(t, f.repo, f.std, student.Tokens{
			AccessToken: "stale",
			Expiry:      time.Now().UTC().Add(-time.Minute),
		})

		_, err := f.factory.Client(ctx, std)
		assert.True(t, errors.Is(err, ErrTokenRefresh))
		assert.Equal(t, 0, f.drives.built())

		stored, err := f.repo.GetStudent(ctx, std.ID)
		require.NoError(t, err)
		assert.Equal(t, "stale", stored.AccessToken)
	})

	t.Run("concurrent callers refresh once", func(t *testing.T) {
		f := newFactoryFixture(t)
		std := testutil.ConnectStudent(t, f.repo, f.std, student.Tokens{
			AccessToken: "stale",
			Expiry:      time.Now().UTC().Add(-time.Minute),
		})

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.factory.Client(ctx, std)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, f.refresher.count())
		assert.Equal(t, 10, f.drives.built())
	})
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.lock("a")
	unlockB := km.lock("b") // other keys are not blocked
	assert.Len(t, km.locks, 2)

	unlockA()
	unlockB()
	assert.Empty(t, km.locks)
}
