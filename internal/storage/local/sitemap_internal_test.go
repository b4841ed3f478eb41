package local

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/sitemap-crawler/internal/crawler"
)

type memFile struct {
	sink *strings.Builder
}

func (m memFile) Write(p []byte) (int, error) { return m.sink.Write(p) }
func (m memFile) Close() error                { return nil }

func TestWriteContinuesAfterLineFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	w, err := New(Config{Path: filepath.Join(t.TempDir(), "out.txt")}, WithLogger(zap.New(core)))
	require.NoError(t, err)

	var out strings.Builder
	calls := 0
	w.open = func(string) (io.WriteCloser, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("disk full")
		}
		return memFile{sink: &out}, nil
	}

	report := w.Write([]crawler.Link{
		crawler.NewLink("http://x/", 0),
		crawler.NewLink("http://x/a", 1),
		crawler.NewLink("http://x/b", 1),
	})

	require.Equal(t, WriteReport{Written: 2, Failed: 1}, report)
	require.Equal(t, "http://x/\n\thttp://x/b\n", out.String())
	entries := logs.FilterMessage("Failed to write sitemap line").All()
	require.Len(t, entries, 1)
	require.Equal(t, "http://x/a", entries[0].ContextMap()["url"])
}
