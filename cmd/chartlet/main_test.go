package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/must-gpa/chartlet/internal/config"
	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

// newTestCLI wires a cliApp against a fake chart host that only has
// FA21-BCS-001 and FA21-BCS-003.
func newTestCLI(t *testing.T) *cliApp {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 80, 60))
	for i := range img.Pix {
		img.Pix[i] = 0xEE
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	chartJPEG := buf.Bytes()

	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "FA21-BCS-001") || strings.Contains(r.URL.Path, "FA21-BCS-003") {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(chartJPEG)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(host.Close)
	u, err := url.Parse(host.URL)
	require.NoError(t, err)

	app := &cliApp{
		logLevel: "error",
		cfg: &config.Config{
			ChartHost:        u.Host,
			ChartScheme:      "http",
			ProbeStrategy:    config.ProbeImage,
			DownloadStrategy: config.DownloadFetch,
			ScraperTimeout:   5 * time.Second,
			BatchWorkers:     2,
			MaxRangeSize:     20,
		},
	}
	require.NoError(t, app.setup(io.Discard))
	return app
}

func execute(t *testing.T, app *cliApp, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "%s is not a PDF", path)
}

func TestURLCommand(t *testing.T) {
	app := newTestCLI(t)

	out, err := execute(t, app, "", "url", "FA21-BCS-002")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "/Chartlet/MUSTFA21-BCS-002AJK/FanG_Chartlet_GPChart.Jpeg"))

	out, err = execute(t, app, "", "url", "--check", "FA21-BCS-001")
	require.NoError(t, err)
	assert.Contains(t, out, "\tavailable")

	out, err = execute(t, app, "", "url", "--check", "FA21-BCS-002")
	require.NoError(t, err)
	assert.Contains(t, out, "\tmissing")

	_, err = execute(t, app, "", "url", "fa21-BCS-001")
	require.Error(t, err)
	assert.True(t, domerrors.IsInvalidInput(err))
}

func TestLookupCommand(t *testing.T) {
	app := newTestCLI(t)
	dir := t.TempDir()

	out, err := execute(t, app, "", "lookup", "FA21-BCS-001", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PDF saved to "+filepath.Join(dir, "FA21-BCS-001.pdf"))
	assertPDF(t, filepath.Join(dir, "FA21-BCS-001.pdf"))

	out, err = execute(t, app, "", "lookup", "FA21-BCS-001, FA21-BCS-002", "--name", "friends", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 charts could not be fetched")
	assertPDF(t, filepath.Join(dir, "friends.pdf"))

	_, err = execute(t, app, "", "lookup", "FA21-BCS-001,FA21-BCS-003", "--out", dir)
	assert.ErrorContains(t, err, "--name is required")

	_, err = execute(t, app, "", "lookup", "FA21-BCS-001,bogus", "--name", "x", "--out", dir)
	assert.True(t, domerrors.IsInvalidInput(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".chartlet-"), "temp file left behind: %s", e.Name())
	}
}

func TestRangeCommand(t *testing.T) {
	app := newTestCLI(t)
	dir := t.TempDir()

	out, err := execute(t, app, "", "range", "FA21-BCS-001", "FA21-BCS-004", "--name", "BCS 2021", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 4 charts could not be fetched")
	assertPDF(t, filepath.Join(dir, "BCS_2021.pdf"))

	_, err = execute(t, app, "", "range", "FA21-BCS-001", "FA21-BCS-004", "--out", dir)
	assert.Error(t, err, "--name is required")

	_, err = execute(t, app, "", "range", "FA21-BCS-005", "FA21-BCS-001", "--name", "x", "--out", dir)
	assert.True(t, domerrors.IsInvalidInput(err))

	_, err = execute(t, app, "", "range", "FA21-BCS-001", "FA21-BCS-050", "--name", "x", "--out", dir)
	assert.True(t, domerrors.IsInvalidInput(err), "range over the limit")
}

func TestMenuCommand(t *testing.T) {
	app := newTestCLI(t)
	dir := t.TempDir()

	script := strings.Join([]string{
		"1", "FA21-BCS-001", "y",
		"1", "FA21-BCS-002", "y",
		"2", "FA21-BCS-001", "FA21-BCS-003", "ClassX", "y",
		"1", "FA21-BCS-001,FA21-BCS-003", "pair", "y",
		"2", "FA21-BCS-003", "FA21-CSE-004", "bad", "y",
		"9", "y",
		"3",
	}, "\n") + "\n"

	out, err := execute(t, app, script, "menu", "--out", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "FA21-BCS-001: chart available")
	assert.Contains(t, out, "FA21-BCS-002: "+domerrors.MsgNotFound)
	assert.Contains(t, out, "prefix mismatch")
	assert.Contains(t, out, "Invalid choice. Please enter 1, 2, or 3.")
	assert.Contains(t, out, "Exiting program. Goodbye!")

	for _, name := range []string{"FA21-BCS-001.pdf", "FA21-BCS-002.pdf", "ClassX.pdf", "pair.pdf"} {
		assertPDF(t, filepath.Join(dir, name))
	}
}

func TestMenuStopsOnNo(t *testing.T) {
	app := newTestCLI(t)

	out, err := execute(t, app, "9\nn\n", "menu", "--out", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "MENU:"))
}

func TestMenuEOF(t *testing.T) {
	app := newTestCLI(t)

	_, err := execute(t, app, "", "menu", "--out", t.TempDir())
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, &cliApp{}, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chartlet "))
}
