package chroma

import "fmt"

// UploadError reports a failed signed-URL request or PUT.
type UploadError struct {
	Step       string
	StatusCode int
	Status     string
	Err        error
}

const (
	UploadStepSignedURL = "signed_url"
	UploadStepPut       = "put"
)

func (e *UploadError) Error() string {
	prefix := "failed to upload file"
	if e.Step == UploadStepSignedURL {
		prefix = "failed to get signed URL"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Status)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SubmissionError reports a rejected generation request.
type SubmissionError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to submit job: %v", e.Err)
	}
	return fmt.Sprintf("failed to submit job: %s", e.Status)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollTransportError reports a status request that did not yield a usable
// response. It is never retried.
type PollTransportError struct {
	JobID      string
	Attempt    int
	StatusCode int
	Status     string
	Err        error
}

func (e *PollTransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to check status: %v", e.Err)
	}
	return fmt.Sprintf("failed to check status: %s", e.Status)
}

func (e *PollTransportError) Unwrap() error { return e.Err }

// JobFailedError carries the server-reported reason for a failed job.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	return e.Message
}

// PollTimeoutError is returned once every allowed poll saw a non-terminal status.
type PollTimeoutError struct {
	JobID    string
	Attempts int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job timed out after %d polls", e.Attempts)
}
