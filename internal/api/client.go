package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Options struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration // 0: no bound
	BreakerMaxFailures uint32
	BreakerOpenFor     time.Duration
	Transport          http.RoundTripper // Optional: defaults to http.DefaultTransport
}

// Client talks JSON (and multipart for uploads) to the streaming backend.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	validate *validator.Validate
}

func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport := &loggingTransport{
		next: newBreakerTransport(base, opts.BreakerMaxFailures, opts.BreakerOpenFor),
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   strings.TrimSpace(opts.Token),
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		validate: validator.New(),
	}
}

// HasToken reports whether a bearer token is available for authenticated routes.
func (c *Client) HasToken() bool {
	return c.token != "" && c.token != "null"
}

// PostJSON sends body (nil for an empty request) and decodes a 2xx answer into out.
// out is validated with its `validate` tags; a failing answer is ErrMalformedResponse.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

// Field is one non-file part of a multipart form.
type Field struct {
	Name  string
	Value string
}

// PostMultipart uploads the file at filePath under fileField together with fields.
func (c *Client) PostMultipart(ctx context.Context, path string, fields []Field, fileField, filePath string, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close upload file", "error", closeErr)
		}
	}()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	_, err = io.Copy(part, file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	for _, f := range fields {
		err = writer.WriteField(f.Name, f.Value)
		if err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.HasToken() {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		if len(data) > 0 {
			unmarshalErr := json.Unmarshal(data, apiErr)
			if unmarshalErr != nil {
				slog.Debug("backend error body is not json", "status", resp.StatusCode)
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	err = c.validate.Struct(out)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return nil
}
