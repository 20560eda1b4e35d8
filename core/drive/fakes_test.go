package drive

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/trezcool/classdrive/core/student"
)

type fakeFolder struct {
	File
	parent string
}

type fakeUpload struct {
	File
	parent   string
	mimeType string
	content  []byte
}

// fakeDrive is an in-memory Drive account. Its folder search ignores case like the real one.
type fakeDrive struct {
	mu        sync.Mutex
	nextID    int
	folders   []fakeFolder
	uploads   []fakeUpload
	creates   int
	findErr   error
	createErr error
	uploadErr error
}

var _ Client = (*fakeDrive)(nil)

func (d *fakeDrive) id(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s-%d", prefix, d.nextID)
}

func (d *fakeDrive) FindFolders(_ context.Context, parentID, name string) ([]File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return nil, d.findErr
	}
	var found []File
	for _, f := range d.folders {
		if f.parent == parentID && strings.EqualFold(f.Name, name) {
			found = append(found, f.File)
		}
	}
	return found, nil
}

func (d *fakeDrive) CreateFolder(_ context.Context, parentID, name string) (File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return File{}, d.createErr
	}
	d.creates++
	f := File{ID: d.id("folder"), Name: name}
	d.folders = append(d.folders, fakeFolder{File: f, parent: parentID})
	return f, nil
}

func (d *fakeDrive) UploadFile(_ context.Context, parentID, name, mimeType string, content []byte) (File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.uploadErr != nil {
		return File{}, d.uploadErr
	}
	id := d.id("file")
	f := File{ID: id, Name: name, WebViewLink: "https://drive.google.com/file/d/" + id + "/view"}
	d.uploads = append(d.uploads, fakeUpload{File: f, parent: parentID, mimeType: mimeType, content: content})
	return f, nil
}

// path returns the folder names from the root down to folderID.
func (d *fakeDrive) path(folderID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var segs []string
	for folderID != RootFolderID {
		found := false
		for _, f := range d.folders {
			if f.ID == folderID {
				segs = append([]string{f.Name}, segs...)
				folderID = f.parent
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	return segs
}

// fakeDrives hands out one fakeDrive per access token.
type fakeDrives struct {
	mu       sync.Mutex
	drives   map[string]*fakeDrive
	tokens   []string
	buildErr error
}

func newFakeDrives() *fakeDrives {
	return &fakeDrives{drives: make(map[string]*fakeDrive)}
}

func (fd *fakeDrives) get(accessToken string) *fakeDrive {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	d, ok := fd.drives[accessToken]
	if !ok {
		d = new(fakeDrive)
		fd.drives[accessToken] = d
	}
	return d
}

func (fd *fakeDrives) newClient(_ context.Context, tok *oauth2.Token) (Client, error) {
	fd.mu.Lock()
	fd.tokens = append(fd.tokens, tok.AccessToken)
	err := fd.buildErr
	fd.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return fd.get(tok.AccessToken), nil
}

func (fd *fakeDrives) built() int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return len(fd.tokens)
}

// fakeRefresher issues numbered access tokens and counts its calls.
type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	tok   student.Tokens
	err   error
}

func (r *fakeRefresher) Refresh(_ context.Context, refreshToken string) (student.Tokens, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return student.Tokens{}, r.err
	}
	tok := r.tok
	if tok.AccessToken == "" {
		tok.AccessToken = fmt.Sprintf("refreshed-%d", r.calls)
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = NowFunc().Add(defaultTokenLifetime)
	}
	return tok, nil
}

func (r *fakeRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
