package drive

import "github.com/pkg/errors"

// Error kinds. Every failure raised by this package matches exactly one of them with errors.Is.
var (
	ErrUnknownStudent       = errors.New("unknown student")
	ErrTokenExchange        = errors.New("token exchange failed")
	ErrNotAuthorized        = errors.New("student has not authorized drive access")
	ErrTokenRefresh         = errors.New("token refresh failed")
	ErrFolderResolution     = errors.New("folder resolution failed")
	ErrUploadTransport      = errors.New("upload failed")
	ErrNoAuthorizedStudents = errors.New("no authorized students found")
)

// OpError is a failure of one drive operation, tagged with its kind.
type OpError struct {
	Kind error
	Err  error
}

func opError(kind, err error) error {
	return &OpError{Kind: kind, Err: err}
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == e.Kind }
