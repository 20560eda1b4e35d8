package drive

import (
	"context"

	"github.com/pkg/errors"
)

// ResolveFolderPath walks `segments` from the Drive root, reusing the first folder whose name
// matches each segment exactly and creating the missing ones. It returns the last folder's ID.
// Running it twice yields the same ID without creating anything the second time.
func ResolveFolderPath(ctx context.Context, c Client, segments []string) (string, error) {
	parentID := RootFolderID
	for _, seg := range segments {
		found, err := c.FindFolders(ctx, parentID, seg)
		if err != nil {
			return "", opError(ErrFolderResolution, err)
		}

		var id string
		for _, f := range found {
			// names must match exactly, whatever the search matched
			if f.Name == seg {
				id = f.ID
				break
			}
		}
		if id == "" {
			f, err := c.CreateFolder(ctx, parentID, seg)
			if err != nil {
				return "", opError(ErrFolderResolution, err)
			}
			if f.ID == "" {
				return "", opError(ErrFolderResolution, errors.Errorf("folder %q created without an id", seg))
			}
			id = f.ID
		}
		parentID = id
	}
	return parentID, nil
}
