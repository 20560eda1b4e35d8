package core

// Logger is any service that can log messages.
// args may contain errors, maps of extra data and at most one person the message is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user a log entry is about.
type Person struct {
	ID       string
	Username string
	Email    string
}
