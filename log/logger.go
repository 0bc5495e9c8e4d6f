package log

import "context"

// Logger is the structured logging contract used by the server wiring.
// Packages that only need fire-and-forget logging use the zerolog global
// directly; the interface exists so startup/shutdown logging can be passed
// around and replaced in tests.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	Fatal(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	With(fields map[string]interface{}) Logger
}
