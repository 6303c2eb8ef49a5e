package status

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulti(t *testing.T) {
	var a, b []string
	r := Multi(
		ReporterFunc(func(_ Severity, m string) { a = append(a, m) }),
		nil,
		ReporterFunc(func(s Severity, m string) { b = append(b, s.String()+":"+m) }),
	)

	r.Report(Info, "Processing unlock...")
	r.Report(Error, "Error: db down")

	assert.Equal(t, []string{"Processing unlock...", "Error: db down"}, a)
	assert.Equal(t, []string{"info:Processing unlock...", "error:Error: db down"}, b)
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Log{Logger: logger, Attrs: []any{"content_id", "42"}}.Report(Error, "declined")

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "severity=error")
	assert.Contains(t, out, "message=declined")
	assert.Contains(t, out, "content_id=42")
}
