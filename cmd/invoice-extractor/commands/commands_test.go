package commands

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get("X-Request-Id"))

		file, header, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "invoice.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))

		io.WriteString(w, `{"success":true,"result":"ok"}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "invoice.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	status, body, err := postInvoice(context.Background(), srv.Client(), srv.URL+"/", path, "req-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"success":true,"result":"ok"}`, string(body))
}

func TestPostInvoice_MissingFile(t *testing.T) {
	_, _, err := postInvoice(context.Background(), http.DefaultClient, "http://127.0.0.1:1", "/no/such.pdf", "")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "invoice-extractor version "+Version+"\n", out.String())
}

func TestExtractCommand_RejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"extract", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")
}
