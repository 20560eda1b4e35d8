package drive

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFolderPath(t *testing.T) {
	ctx := context.Background()
	segments := []string{"SLRTCE Files", "Physics", "Notes"}

	t.Run("creates then reuses", func(t *testing.T) {
		d := new(fakeDrive)

		id, err := ResolveFolderPath(ctx, d, segments)
		require.NoError(t, err)
		assert.Equal(t, 3, d.creates)
		assert.Equal(t, segments, d.path(id))

		again, err := ResolveFolderPath(ctx, d, segments)
		require.NoError(t, err)
		assert.Equal(t, id, again)
		assert.Equal(t, 3, d.creates)
	})

	t.Run("shares existing prefix", func(t *testing.T) {
		d := new(fakeDrive)
		_, err := ResolveFolderPath(ctx, d, segments)
		require.NoError(t, err)

		id, err := ResolveFolderPath(ctx, d, []string{"SLRTCE Files", "Physics", "Assignments"})
		require.NoError(t, err)
		assert.Equal(t, 4, d.creates)
		assert.Equal(t, []string{"SLRTCE Files", "Physics", "Assignments"}, d.path(id))
	})

	t.Run("names are case sensitive", func(t *testing.T) {
		d := new(fakeDrive)
		lower, err := ResolveFolderPath(ctx, d, []string{"notes"})
		require.NoError(t, err)

		upper, err := ResolveFolderPath(ctx, d, []string{"Notes"})
		require.NoError(t, err)
		assert.NotEqual(t, lower, upper)
		assert.Equal(t, 2, d.creates)
	})

	t.Run("empty path is the root", func(t *testing.T) {
		id, err := ResolveFolderPath(ctx, new(fakeDrive), nil)
		require.NoError(t, err)
		assert.Equal(t, RootFolderID, id)
	})

	t.Run("failures", func(t *testing.T) {
		boom := errors.New("boom")
		for name, d := range map[string]*fakeDrive{
			"find":   {findErr: boom},
			"create": {createErr: boom},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := ResolveFolderPath(ctx, d, segments)
				assert.True(t, errors.Is(err, ErrFolderResolution))
				assert.Contains(t, err.Error(), "boom")
			})
		}
	})
}
