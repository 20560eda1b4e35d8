package drive

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	FolderMimeType = "application/vnd.google-apps.folder"
	RootFolderID   = "root"
)

// File is a file or folder within a student's Drive.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebViewLink string `json:"web_view_link,omitempty"`
}

// Client is the set of Drive operations used against one student's account.
type Client interface {
	// FindFolders lists the non-trashed folders named `name` directly under `parentID`.
	FindFolders(ctx context.Context, parentID, name string) ([]File, error)
	CreateFolder(ctx context.Context, parentID, name string) (File, error)
	UploadFile(ctx context.Context, parentID, name, mimeType string, content []byte) (File, error)
}

// NewClientFunc builds a Client from an access token. The client never refreshes on its own.
type NewClientFunc func(ctx context.Context, tok *oauth2.Token) (Client, error)

type googleClient struct {
	svc     *drive.Service
	timeout time.Duration
}

var _ Client = (*googleClient)(nil)

// GoogleClientFunc returns a NewClientFunc building clients for the Drive v3 API.
func GoogleClientFunc(timeout time.Duration, opts ...option.ClientOption) NewClientFunc {
	return func(ctx context.Context, tok *oauth2.Token) (Client, error) {
		opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}, opts...)
		svc, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "creating drive service")
		}
		return &googleClient{svc: svc, timeout: timeout}, nil
	}
}

func (c *googleClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *googleClient) FindFolders(ctx context.Context, parentID, name string) ([]File, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.svc.Files.List().
		Q(folderQuery(parentID, name)).
		Fields("files(id, name)").
		Spaces("drive").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "listing folders named %q", name)
	}
	files := make([]File, 0, len(list.Files))
	for _, f := range list.Files {
		files = append(files, File{ID: f.Id, Name: f.Name})
	}
	return files, nil
}

func (c *googleClient) CreateFolder(ctx context.Context, parentID, name string) (File, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: FolderMimeType,
		Parents:  []string{parentID},
	}).Fields("id, name").Context(ctx).Do()
	if err != nil {
		return File{}, errors.Wrapf(err, "creating folder %q", name)
	}
	return File{ID: f.Id, Name: f.Name}, nil
}

func (c *googleClient) UploadFile(ctx context.Context, parentID, name, mimeType string, content []byte) (File, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	f, err := c.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parentID},
	}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id, name, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return File{}, errors.Wrapf(err, "uploading %q", name)
	}
	return File{ID: f.Id, Name: f.Name, WebViewLink: f.WebViewLink}, nil
}

// folderQuery builds the Drive search for a folder by exact name under a parent.
func folderQuery(parentID, name string) string {
	return "mimeType = '" + FolderMimeType + "'" +
		" and name = '" + escapeQuery(name) + "'" +
		" and '" + escapeQuery(parentID) + "' in parents" +
		" and trashed = false"
}

// escapeQuery escapes a string literal for the Drive query language.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
