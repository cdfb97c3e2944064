package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"stencil/internal/infra"
)

// SubmitResult is the acknowledgement of a queued job.
type SubmitResult struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type imageJobRequest struct {
	Model           string `json:"model"`
	ToolType        string `json:"toolType"`
	EffectID        string `json:"effectId"`
	ImageURL        string `json:"imageUrl"`
	UserID          string `json:"userId"`
	RemoveWatermark bool   `json:"removeWatermark"`
	IsPrivate       bool   `json:"isPrivate"`
}

type videoJobRequest struct {
	ImageURL        []string `json:"imageUrl"`
	EffectID        string   `json:"effectId"`
	UserID          string   `json:"userId"`
	RemoveWatermark bool     `json:"removeWatermark"`
	Model           string   `json:"model"`
	IsPrivate       bool     `json:"isPrivate"`
}

// jobPayload builds the body for the configured job type. Effect and user ids
// are static configuration, never user input.
func (c *Client) jobPayload(imageURL string) any {
	if c.IsVideo() {
		return videoJobRequest{
			ImageURL:        []string{imageURL},
			EffectID:        c.effectID,
			UserID:          c.userID,
			RemoveWatermark: true,
			Model:           infra.ModelVideoEffects,
			IsPrivate:       true,
		}
	}
	return imageJobRequest{
		Model:           c.modelType,
		ToolType:        c.modelType,
		EffectID:        c.effectID,
		ImageURL:        imageURL,
		UserID:          c.userID,
		RemoveWatermark: true,
		IsPrivate:       true,
	}
}

// Submit queues an effect job for imageURL.
func (c *Client) Submit(ctx context.Context, imageURL string) (*SubmitResult, error) {
	body, err := json.Marshal(c.jobPayload(imageURL))
	if err != nil {
		return nil, fmt.Errorf("chroma: encode job request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.jobEndpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chroma: build job request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	var decoded SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.JobID == "" {
		return nil, &SubmissionError{StatusCode: resp.StatusCode, Err: errors.New("response carried no job id")}
	}
	c.logger.Info().
		Str("job_id", decoded.JobID).
		Str("status", decoded.Status).
		Str("model", c.modelType).
		Msg("chroma: job submitted")
	return &decoded, nil
}
