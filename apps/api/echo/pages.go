package echoapi

import (
	"html/template"
	"io"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	appfs "github.com/trezcool/classdrive/fs"
)

const (
	pagesDir     = "templates/pages/"
	basePage     = "_base.gohtml"
	authorizedPg = "authorized.gohtml"
	authFailedPg = "authorization_failed.gohtml"
)

// pageRenderer renders the HTML pages shown to students at the end of the consent flow.
type pageRenderer struct {
	mu    sync.Mutex
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	return &pageRenderer{pages: make(map[string]*template.Template)}
}

func (r *pageRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, basePage, data)
}

func (r *pageRenderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.pages[name]; ok {
		return tmpl, nil
	}
	tmpl, err := template.ParseFS(appfs.FS, pagesDir+basePage, pagesDir+name)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing page %s", name)
	}
	r.pages[name] = tmpl
	return tmpl, nil
}

type authorizedPage struct {
	Name  string
	Email string
}

type failedPage struct {
	Message string
}
