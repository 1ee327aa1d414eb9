package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.TraceLevel, GetLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("loud"))
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestCombinedWriter(t *testing.T) {
	var a, b bytes.Buffer
	errA := errors.New("a broke")
	cw := NewCombinedWriter(&a, failingWriter{errA}, &b)

	n, err := cw.Write([]byte("hello"))
	assert.Equal(t, 5, n)
	assert.Equal(t, []error{errA}, multierr.Errors(err))
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())
}

func TestSetup_File(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetFormatter(&logrus.TextFormatter{})

	name := filepath.Join(t.TempDir(), "weighttracker")
	closer := Setup(LoggerSetupParams{
		LogFileName:   name,
		LogLevel:      "debug",
		LogFormatJSON: true,
	})
	logrus.WithField("op", "create").Info("entry stored")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(name + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(content), `"op":"create"`)
	assert.Contains(t, string(content), "entry stored")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}
