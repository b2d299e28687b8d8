package forecast

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// UpstreamError reports a non-2xx reply from the forecasting service.
// The status and body are logged server-side, never forwarded to the
// caller.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("forecast upstream returned %d: %s", e.Status, e.Body)
}

// Client forwards uploaded files to the external forecasting service
// and relays its JSON reply byte for byte.
type Client struct {
	upstreamURL string
	httpClient  *http.Client
}

func NewClient(upstreamURL string, timeout time.Duration) *Client {
	return &Client{
		upstreamURL: upstreamURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Forward streams the file at path to the upstream endpoint as a
// multipart POST under field name "file", keeping the client's original
// filename. On 2xx it returns the raw response body.
func (c *Client) Forward(ctx context.Context, path, filename string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstreamURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
