package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stencil/internal/domain"
)

// ResultImage is one entry of a normalized completed result.
type ResultImage struct {
	Image string `json:"image"`
}

// CompletedResult is the single shape Poll returns regardless of how the
// server encoded the result.
type CompletedResult struct {
	Status domain.JobStatus `json:"status"`
	Result []ResultImage    `json:"result"`
}

// URL returns the media address of the first result entry.
func (r CompletedResult) URL() string {
	if len(r.Result) == 0 {
		return ""
	}
	return r.Result[0].Image
}

// ProgressFunc observes each non-terminal poll; attempt starts at 1.
type ProgressFunc func(attempt int)

// resultItem holds every field name the service has used for the media URL.
type resultItem struct {
	MediaURL string `json:"mediaUrl"`
	Video    string `json:"video"`
	Image    string `json:"image"`
}

func (i resultItem) url() string {
	for _, candidate := range []string{i.MediaURL, i.Video, i.Image} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ""
}

// resultItems decodes the `result` member, which is either one object or a
// list. Any other encoding yields no items.
func resultItems(raw json.RawMessage) []resultItem {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '[':
		var items []resultItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil
		}
		return items
	case '{':
		var item resultItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil
		}
		return []resultItem{item}
	}
	return nil
}

type statusResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (r statusResponse) errorMessage() string {
	raw := bytes.TrimSpace(r.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
		return detail.Message
	}
	return string(raw)
}

// normalize turns a completed status response into the canonical result.
// Only the first entry of a list counts.
func normalize(resp statusResponse) CompletedResult {
	var item resultItem
	if items := resultItems(resp.Result); len(items) > 0 {
		item = items[0]
	}
	return CompletedResult{
		Status: domain.JobStatusCompleted,
		Result: []ResultImage{{Image: item.url()}},
	}
}

// Poll checks jobID at a fixed interval until it completes, fails, or the
// attempt budget runs out. Polls never overlap: each waits for the previous
// response and the interval.
func (c *Client) Poll(ctx context.Context, jobID string, onProgress ProgressFunc) (CompletedResult, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/status", c.jobEndpoint(), url.PathEscape(c.userID), url.PathEscape(jobID))

	for attempt := 0; attempt < c.maxPolls; attempt++ {
		resp, err := c.fetchStatus(ctx, endpoint, jobID, attempt+1)
		if err != nil {
			return CompletedResult{}, err
		}
		c.logger.Debug().
			Str("job_id", jobID).
			Int("poll", attempt+1).
			Str("status", resp.Status).
			Msg("chroma: poll")

		switch domain.JobStatus(resp.Status) {
		case domain.JobStatusCompleted:
			result := normalize(resp)
			c.logger.Info().Str("job_id", jobID).Str("url", result.URL()).Msg("chroma: job completed")
			return result, nil
		case domain.JobStatusFailed, "error":
			msg := resp.errorMessage()
			if msg == "" {
				msg = "Job processing failed"
			}
			return CompletedResult{}, &JobFailedError{JobID: jobID, Message: msg}
		}

		if onProgress != nil {
			onProgress(attempt + 1)
		}
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return CompletedResult{}, err
		}
	}
	return CompletedResult{}, &PollTimeoutError{JobID: jobID, Attempts: c.maxPolls}
}

func (c *Client) fetchStatus(ctx context.Context, endpoint, jobID string, attempt int) (statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return statusResponse{}, fmt.Errorf("chroma: build status request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return statusResponse{}, ctx.Err()
		}
		return statusResponse{}, &PollTransportError{JobID: jobID, Attempt: attempt, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusResponse{}, &PollTransportError{JobID: jobID, Attempt: attempt, StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	var decoded statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return statusResponse{}, &PollTransportError{JobID: jobID, Attempt: attempt, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return decoded, nil
}
