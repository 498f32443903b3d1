package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spherical/invoice-extractor/cmd/invoice-extractor/ui"
)

var uploadURL string

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a PDF to a running invoice extractor API",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	cmd.Flags().StringVar(&uploadURL, "url", "http://localhost:5000", "base URL of the API")
	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := uuid.NewString()
	ui.Info(cmd.ErrOrStderr(), "Uploading %s (request %s)", args[0], requestID)

	spin := ui.NewSpinner("Waiting for extraction...")
	spin.Start()
	status, body, err := postInvoice(ctx, http.DefaultClient, uploadURL, args[0], requestID)
	spin.Stop()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	if status != http.StatusOK {
		return fmt.Errorf("server returned %d", status)
	}
	ui.Success(cmd.ErrOrStderr(), "Server accepted the upload")
	return nil
}

// postInvoice sends path as the "files" multipart field to <baseURL>/api/upload.
func postInvoice(ctx context.Context, client *http.Client, baseURL, path, requestID string) (int, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return 0, nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return 0, nil, err
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/api/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
