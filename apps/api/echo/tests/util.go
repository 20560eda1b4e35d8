package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	. "github.com/trezcool/classdrive/apps/api/echo"
	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
	emailsvc "github.com/trezcool/classdrive/services/email"
	logsvc "github.com/trezcool/classdrive/services/logger"
	inmemdb "github.com/trezcool/classdrive/storage/database/inmem"
)

const (
	goodLoginCode   = "good-login"
	goodConsentCode = "abc"
)

type testApp struct {
	conf     *core.Config
	server   *Server
	teachers teacher.Repository
	students student.Repository
	mail     *emailsvc.ConsoleServiceMock
	drives   *fakeDrives
	identity *fakeIdentity
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	conf.Google.TokenURL = newTokenServer(t).URL

	// set up DB & repos
	db := inmemdb.NewDB()
	teachers := inmemdb.NewTeacherRepository(db)
	students := inmemdb.NewStudentRepository(db)

	// set up services
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	logger := logsvc.NewNopLogger()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	drives := newFakeDrives()
	identity := &fakeIdentity{profile: teacher.GoogleProfile{
		GoogleID: "g-ada",
		Name:     "Ada Lovelace",
		Email:    "ada@inst.edu",
	}}

	authorizer := drive.NewAuthorizer(conf, students)
	clients := drive.NewClientFactory(students, authorizer, drives.newClient)
	notifier := student.NewNotifier(conf, mailSvc, logger)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		TeacherSvc:     teacher.NewService(conf, teachers, validate),
		StudentSvc:     student.NewService(conf, students, authorizer, notifier, validate),
		Authorizer:     authorizer,
		Dispatcher:     drive.NewDispatcher(conf, students, clients, logger),
		Identity:       identity,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testApp{
		conf:     conf,
		server:   server,
		teachers: teachers,
		students: students,
		mail:     mailSvc,
		drives:   drives,
		identity: identity,
	}
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) getToken(t *testing.T, tch teacher.Teacher) string {
	token, err := GenerateToken(app.conf, GetTeacherClaims(app.conf, tch))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// newTokenServer accepts the consent code goodConsentCode and any refresh token.
func newTokenServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		resp := map[string]interface{}{"token_type": "Bearer", "expires_in": 3600}
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			code := r.PostForm.Get("code")
			if code != goodConsentCode {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			resp["access_token"] = "access-" + code
			resp["refresh_token"] = "refresh-" + code
		case "refresh_token":
			resp["access_token"] = "refreshed"
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeIdentity struct {
	profile teacher.GoogleProfile
}

func (id *fakeIdentity) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (id *fakeIdentity) Profile(_ context.Context, code string) (teacher.GoogleProfile, error) {
	if code != goodLoginCode {
		return teacher.GoogleProfile{}, errors.New("invalid_grant")
	}
	return id.profile, nil
}

// fakeDrive is an in-memory Drive of one student.
type fakeDrive struct {
	mu      sync.Mutex
	seq     int
	folders map[string]drive.File // by id
	parents map[string]string
	uploads []upload
	creates int
}

type upload struct {
	ParentID string
	Name     string
	MimeType string
	Content  []byte
}

func (d *fakeDrive) FindFolders(_ context.Context, parentID, name string) ([]drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found []drive.File
	for id, f := range d.folders {
		if f.Name == name && d.parents[id] == parentID {
			found = append(found, f)
		}
	}
	return found, nil
}

func (d *fakeDrive) CreateFolder(_ context.Context, parentID, name string) (drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.creates++
	f := drive.File{ID: fmt.Sprintf("folder-%d", d.seq), Name: name}
	d.folders[f.ID] = f
	d.parents[f.ID] = parentID
	return f, nil
}

func (d *fakeDrive) UploadFile(_ context.Context, parentID, name, mimeType string, content []byte) (drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	d.uploads = append(d.uploads, upload{ParentID: parentID, Name: name, MimeType: mimeType, Content: content})
	id := fmt.Sprintf("file-%d", d.seq)
	return drive.File{ID: id, Name: name, WebViewLink: "https://drive.google.com/file/d/" + id + "/view"}, nil
}

// path returns the folder names from the Drive root down to id.
func (d *fakeDrive) path(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var names []string
	for id != "" && id != drive.RootFolderID {
		names = append([]string{d.folders[id].Name}, names...)
		id = d.parents[id]
	}
	return names
}

// fakeDrives hands out one fakeDrive per access token.
type fakeDrives struct {
	mu     sync.Mutex
	drives map[string]*fakeDrive
}

func newFakeDrives() *fakeDrives {
	return &fakeDrives{drives: make(map[string]*fakeDrive)}
}

func (fd *fakeDrives) get(accessToken string) *fakeDrive {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	d, ok := fd.drives[accessToken]
	if !ok {
		d = &fakeDrive{folders: make(map[string]drive.File), parents: make(map[string]string)}
		fd.drives[accessToken] = d
	}
	return d
}

func (fd *fakeDrives) newClient(_ context.Context, tok *oauth2.Token) (drive.Client, error) {
	return fd.get(tok.AccessToken), nil
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

type formFile struct {
	Name        string
	ContentType string
	Content     []byte
}

func newUploadRequest(t *testing.T, token string, fields map[string][]string, file *formFile) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, vals := range fields {
		for _, v := range vals {
			if err := w.WriteField(k, v); err != nil {
				t.Fatalf("WriteField(): %v", err)
			}
		}
	}
	if file != nil {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, file.Name)}
		h["Content-Type"] = []string{file.ContentType}
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart(): %v", err)
		}
		_, _ = part.Write(file.Content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func stateOf(t *testing.T, link string) string {
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse(%s): %v", link, err)
	}
	return u.Query().Get("state")
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if strings.EqualFold(c.Name, name) && c.Value != "" {
			return c
		}
	}
	return nil
}
