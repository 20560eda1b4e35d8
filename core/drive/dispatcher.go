package drive

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/student"
)

// Upload statuses
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Upload is one file to distribute to several students.
type Upload struct {
	FileName     string
	MimeType     string
	Content      []byte
	SubjectName  string
	DocumentType string
	StudentIDs   []string
}

// Result is the outcome of an Upload for one student.
type Result struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	StudentEmail string `json:"student_email"`
	Status       string `json:"status"`
	FileID       string `json:"file_id,omitempty"`
	WebViewLink  string `json:"web_view_link,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Summary aggregates the results of an Upload.
type Summary struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	FileName      string   `json:"file_name"`
	FileSize      int64    `json:"file_size"`
	TotalStudents int      `json:"total_students"`
	SuccessCount  int      `json:"success_count"`
	FailCount     int      `json:"fail_count"`
	Skipped       []string `json:"skipped"`
	Results       []Result `json:"results"`
}

// StudentFinder loads candidate students.
type StudentFinder interface {
	QueryStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error)
}

// Dispatcher fans one file out to the Drives of several authorized students.
// A failure for one student never affects the others.
type Dispatcher struct {
	students    StudentFinder
	clients     *ClientFactory
	logger      core.Logger
	rootFolder  string
	maxFileSize int64
	concurrency int
}

func NewDispatcher(conf *core.Config, students StudentFinder, clients *ClientFactory, logger core.Logger) *Dispatcher {
	concurrency := conf.Upload.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{
		students:    students,
		clients:     clients,
		logger:      logger,
		rootFolder:  conf.Upload.RootFolder,
		maxFileSize: conf.Upload.MaxFileSize,
		concurrency: concurrency,
	}
}

// Distribute uploads the file to every requested student of the teacher who has authorized
// Drive access, under `<root>/<subject>/<document type>`. Requested IDs that are unknown,
// owned by another teacher or not yet authorized are reported in Summary.Skipped.
func (d *Dispatcher) Distribute(ctx context.Context, teacherID string, up Upload) (Summary, error) {
	ids, err := d.validate(&up)
	if err != nil {
		return Summary{}, err
	}

	connected := true
	candidates, err := d.students.QueryStudents(ctx, student.QueryFilter{
		TeacherID: teacherID,
		IDs:       ids,
		Connected: &connected,
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying students")
	}
	if len(candidates) == 0 {
		return Summary{}, opError(ErrNoAuthorizedStudents, nil)
	}
	candidates, skipped := order(ids, candidates)

	path := []string{d.rootFolder, up.SubjectName, up.DocumentType}
	results := make([]Result, len(candidates))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, std := range candidates {
		g.Go(func() error {
			results[i] = d.uploadOne(ctx, std, path, up)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{
		Success:       true,
		FileName:      up.FileName,
		FileSize:      int64(len(up.Content)),
		TotalStudents: len(ids),
		Skipped:       skipped,
		Results:       results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			sum.SuccessCount++
		} else {
			sum.FailCount++
		}
	}
	sum.Message = fmt.Sprintf("Upload complete: %d successful, %d failed", sum.SuccessCount, sum.FailCount)
	return sum, nil
}

func (d *Dispatcher) uploadOne(ctx context.Context, std student.Student, path []string, up Upload) Result {
	res := Result{
		StudentID:    std.ID,
		StudentName:  std.Name,
		StudentEmail: std.Email,
		Status:       StatusFailed,
	}
	fail := func(err error) Result {
		d.logger.Warn(fmt.Sprintf("uploading %q to %s", up.FileName, std.Email), err)
		res.Error = err.Error()
		return res
	}

	c, err := d.clients.Client(ctx, std)
	if err != nil {
		return fail(err)
	}
	folderID, err := ResolveFolderPath(ctx, c, path)
	if err != nil {
		return fail(err)
	}
	f, err := c.UploadFile(ctx, folderID, up.FileName, up.MimeType, up.Content)
	if err != nil {
		return fail(opError(ErrUploadTransport, err))
	}

	res.Status = StatusSuccess
	res.FileID = f.ID
	res.WebViewLink = f.WebViewLink
	return res
}

// validate checks the upload before any network call and returns the de-duplicated target IDs.
func (d *Dispatcher) validate(up *Upload) ([]string, error) {
	up.FileName = core.CleanString(up.FileName)
	up.SubjectName = core.CleanString(up.SubjectName)
	up.DocumentType = core.CleanString(up.DocumentType)
	if up.MimeType == "" {
		up.MimeType = "application/octet-stream"
	}

	var flds []core.FieldError
	switch {
	case len(up.Content) == 0:
		flds = append(flds, core.FieldError{Field: "file", Error: "no file uploaded"})
	case d.maxFileSize > 0 && int64(len(up.Content)) > d.maxFileSize:
		flds = append(flds, core.FieldError{Field: "file", Error: fmt.Sprintf("file exceeds %d bytes", d.maxFileSize)})
	}
	if up.FileName == "" && len(up.Content) > 0 {
		flds = append(flds, core.FieldError{Field: "file", Error: "file name is required"})
	}
	if up.SubjectName == "" {
		flds = append(flds, core.FieldError{Field: "subject_name", Error: "subject name is required"})
	}
	if up.DocumentType == "" {
		flds = append(flds, core.FieldError{Field: "document_type", Error: "document type is required"})
	}

	ids := make([]string, 0, len(up.StudentIDs))
	seen := make(map[string]bool, len(up.StudentIDs))
	for _, id := range up.StudentIDs {
		id = core.CleanString(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		flds = append(flds, core.FieldError{Field: "student_ids", Error: "no students selected"})
	}

	if flds != nil {
		return nil, core.NewValidationError(nil, flds...)
	}
	return ids, nil
}

// order sorts candidates by their position in ids and returns the ids left unresolved.
func order(ids []string, candidates []student.Student) ([]student.Student, []string) {
	byID := make(map[string]student.Student, len(candidates))
	for _, s := range candidates {
		byID[s.ID] = s
	}
	ordered := make([]student.Student, 0, len(candidates))
	skipped := make([]string, 0)
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		} else {
			skipped = append(skipped, id)
		}
	}
	return ordered, skipped
}
