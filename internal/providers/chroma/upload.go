package chroma

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"stencil/internal/domain"
	"stencil/internal/nanoid"
)

// UploadFileName derives the randomized storage name for file.
func (c *Client) UploadFileName(file domain.LocalFile) (string, error) {
	id, err := c.newID(nanoid.FileIDLength)
	if err != nil {
		return "", fmt.Errorf("chroma: generate file id: %w", err)
	}
	return id + "." + file.Extension(), nil
}

// Upload stores file behind a signed URL and returns its public address. The
// public address is derived from the content domain, so no lookup follows the PUT.
func (c *Client) Upload(ctx context.Context, file domain.LocalFile) (string, error) {
	fileName, err := c.UploadFileName(file)
	if err != nil {
		return "", err
	}

	signedURL, err := c.signedUploadURL(ctx, fileName)
	if err != nil {
		return "", err
	}
	c.logger.Debug().Str("file_name", fileName).Msg("chroma: got signed url")

	if err := c.putFile(ctx, signedURL, file); err != nil {
		return "", err
	}

	downloadURL := c.contentBaseURL + "/" + fileName
	c.logger.Info().Str("url", downloadURL).Int("bytes", len(file.Data)).Msg("chroma: uploaded file")
	return downloadURL, nil
}

func (c *Client) signedUploadURL(ctx context.Context, fileName string) (string, error) {
	endpoint := c.baseURL + "/get-emd-upload-url?fileName=" + url.QueryEscape(fileName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("chroma: build signed url request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &UploadError{Step: UploadStepSignedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Step: UploadStepSignedURL, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UploadError{Step: UploadStepSignedURL, Err: fmt.Errorf("read response: %w", err)}
	}
	signed := strings.TrimSpace(string(raw))
	if signed == "" {
		return "", &UploadError{Step: UploadStepSignedURL, Err: errors.New("empty signed url")}
	}
	return signed, nil
}

func (c *Client) putFile(ctx context.Context, signedURL string, file domain.LocalFile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, bytes.NewReader(file.Data))
	if err != nil {
		return &UploadError{Step: UploadStepPut, Err: fmt.Errorf("invalid signed url: %w", err)}
	}
	req.ContentLength = int64(len(file.Data))
	req.Header.Set("Content-Type", file.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &UploadError{Step: UploadStepPut, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UploadError{Step: UploadStepPut, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}
	return nil
}
