package status

import (
	"context"
	"log/slog"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Reporter is a status surface that receives human-readable updates.
type Reporter interface {
	Report(severity Severity, message string)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(severity Severity, message string)

func (f ReporterFunc) Report(severity Severity, message string) {
	f(severity, message)
}

// Log mirrors every update into the structured log.
type Log struct {
	Logger *slog.Logger
	Attrs  []any
}

func (l Log) Report(severity Severity, message string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level := slog.LevelInfo
	if severity == Error {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "status", append([]any{"severity", severity.String(), "message", message}, l.Attrs...)...)
}

// Multi fans one update out to several reporters.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(severity Severity, message string) {
		for _, r := range reporters {
			if r != nil {
				r.Report(severity, message)
			}
		}
	})
}
