package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanTextNormalizesWhitespace(t *testing.T) {
	in := "Senior   Backend   Engineer\r\n\r\n\r\n\r\nRequirements:\r\n- Go    experience\r\n-  Kubernetes\t\n"
	got := CleanText(in)
	want := "Senior Backend Engineer\n\nRequirements:\n- Go    experience\n-  Kubernetes"
	assert.Equal(t, want, got)
}

func TestCleanTextKeepsHeadingsAndBullets(t *testing.T) {
	in := "  ## About Us\n   - ship fast\n   * own outcomes"
	got := CleanText(in)
	assert.Equal(t, "## About Us\n- ship fast\n* own outcomes", got)
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("  \n \t \n"))
}

func TestFromURLExtractsPostingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<nav>Careers</nav>
			<div class="job-description">
				<h1>Backend Engineer</h1>
				<p>Requirements: Go, PostgreSQL.</p>
			</div>
		</body></html>`))
	}))
	defer srv.Close()

	text, source, err := FromURL(context.Background(), srv.URL, URLOptions{})
	require.NoError(t, err)
	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "Requirements: Go, PostgreSQL.")
	assert.NotContains(t, text, "Careers")
	require.NotNil(t, source)
	assert.Equal(t, srv.URL, source.URL)
	assert.Equal(t, "unknown", source.Platform)
}

func TestFromURLFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := FromURL(context.Background(), srv.URL, URLOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)
}

func TestFromURLEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	_, _, err := FromURL(context.Background(), srv.URL, URLOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContentExtractionFailed)
}

func TestFromUploadPlainText(t *testing.T) {
	text, source, err := FromUpload("posting.txt", []byte("Staff Engineer\n\nRequirements:\n- Rust\n"))
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer\n\nRequirements:\n- Rust", text)
	require.NotNil(t, source)
	assert.Equal(t, "posting.txt", source.Filename)
}

func TestFromUploadStripsDirectoryFromFilename(t *testing.T) {
	_, source, err := FromUpload("../../etc/posting.md", []byte("# Role\nGo engineer"))
	require.NoError(t, err)
	assert.Equal(t, "posting.md", source.Filename)
}

func TestFromUploadRejectsEmptyAndUnknown(t *testing.T) {
	_, _, err := FromUpload("posting.txt", nil)
	require.Error(t, err)

	_, _, err = FromUpload("posting.exe", []byte("MZ"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestFromUploadRejectsOversize(t *testing.T) {
	_, _, err := FromUpload("posting.txt", []byte(strings.Repeat("a", maxUploadBytes+1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
