package core

// Logger is the app-wide logging and error reporting interface.
// Implementations may inspect args for known types (e.g. a logged-in user)
// and forward the rest to their backend.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
