package chroma

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// sequenceHandler answers status polls with payloads in order, repeating the
// last one once the list is exhausted.
func sequenceHandler(payloads ...map[string]any) func(recordedRequest) *http.Response {
	var mu sync.Mutex
	idx := 0
	return func(recordedRequest) *http.Response {
		mu.Lock()
		defer mu.Unlock()
		p := payloads[len(payloads)-1]
		if idx < len(payloads) {
			p = payloads[idx]
		}
		idx++
		return jsonResponse(http.StatusOK, p)
	}
}

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func newPollClient(transport *stubTransport, sleeper *recordingSleeper) *Client {
	client := NewClient(Options{
		BaseURL:    "https://api.example.com",
		UserID:     "user-1",
		EffectID:   "stencilMaker",
		HTTPClient: &http.Client{Transport: transport},
	})
	client.sleep = sleeper.sleep
	return client
}

func pending() map[string]any { return map[string]any{"status": "pending"} }

func TestPollNormalizesResultShapes(t *testing.T) {
	cases := []struct {
		name   string
		result any
		want   string
	}{
		{"object with mediaUrl", map[string]any{"mediaUrl": "https://cdn.example.com/m.png", "image": "https://cdn.example.com/ignored.png"}, "https://cdn.example.com/m.png"},
		{"object with image", map[string]any{"image": "https://cdn.example.com/i.png"}, "https://cdn.example.com/i.png"},
		{"array with video", []any{map[string]any{"video": "https://cdn.example.com/v.mp4"}}, "https://cdn.example.com/v.mp4"},
		{"video preferred over image", map[string]any{"video": "https://cdn.example.com/v.mp4", "image": "https://cdn.example.com/i.png"}, "https://cdn.example.com/v.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &stubTransport{handler: sequenceHandler(map[string]any{"status": "completed", "result": tc.result})}
			client := newPollClient(transport, &recordingSleeper{})

			got, err := client.Poll(context.Background(), "job-1", nil)
			if err != nil {
				t.Fatalf("poll: %v", err)
			}
			if got.Status != "completed" {
				t.Fatalf("status = %q", got.Status)
			}
			if len(got.Result) != 1 || got.Result[0].Image != tc.want {
				t.Fatalf("result = %+v, want [{image: %s}]", got.Result, tc.want)
			}
		})
	}
}

func TestPollSequentialUntilCompleted(t *testing.T) {
	transport := &stubTransport{handler: sequenceHandler(
		pending(),
		map[string]any{"status": "processing"},
		map[string]any{"status": "completed", "result": map[string]any{"image": "https://cdn.example.com/out.png"}},
	)}
	sleeper := &recordingSleeper{}
	client := newPollClient(transport, sleeper)

	var progress []int
	got, err := client.Poll(context.Background(), "job-7", func(attempt int) {
		progress = append(progress, attempt)
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.URL() != "https://cdn.example.com/out.png" {
		t.Fatalf("url = %q", got.URL())
	}
	calls := transport.calls()
	if len(calls) != 3 {
		t.Fatalf("requests = %d, want 3", len(calls))
	}
	for _, c := range calls {
		if c.Path != "/image-gen/user-1/job-7/status" {
			t.Fatalf("status path = %q", c.Path)
		}
		if c.Header.Get("Accept") != acceptHeader {
			t.Fatalf("accept header missing")
		}
	}
	if len(sleeper.waits) != 2 || sleeper.waits[0] != 2*time.Second || sleeper.waits[1] != 2*time.Second {
		t.Fatalf("waits = %v, want two fixed 2s intervals", sleeper.waits)
	}
	if len(progress) != 2 || progress[0] != 1 || progress[1] != 2 {
		t.Fatalf("progress = %v, want [1 2]", progress)
	}
}

func TestPollIgnoresScalarResultWhileInProgress(t *testing.T) {
	transport := &stubTransport{handler: sequenceHandler(
		map[string]any{"status": "processing", "result": "queued"},
		map[string]any{"status": "pending", "result": 42},
		map[string]any{"status": "completed", "result": map[string]any{"image": "https://cdn.example.com/out.png"}},
	)}
	client := newPollClient(transport, &recordingSleeper{})

	got, err := client.Poll(context.Background(), "job-8", nil)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got.URL() != "https://cdn.example.com/out.png" {
		t.Fatalf("url = %q", got.URL())
	}
	if n := len(transport.calls()); n != 3 {
		t.Fatalf("requests = %d, want 3", n)
	}
}

func TestPollCompletedWithScalarResultHasNoURL(t *testing.T) {
	for _, result := range []any{"done", true, 7} {
		transport := &stubTransport{handler: sequenceHandler(map[string]any{"status": "completed", "result": result})}
		client := newPollClient(transport, &recordingSleeper{})

		got, err := client.Poll(context.Background(), "job-9", nil)
		if err != nil {
			t.Fatalf("poll with result %v: %v", result, err)
		}
		if got.URL() != "" {
			t.Fatalf("url = %q, want empty for result %v", got.URL(), result)
		}
	}
}

func TestPollTimesOutAfterMaxPolls(t *testing.T) {
	transport := &stubTransport{handler: sequenceHandler(pending())}
	client := newPollClient(transport, &recordingSleeper{})

	_, err := client.Poll(context.Background(), "job-slow", nil)
	var timeout *PollTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want *PollTimeoutError", err)
	}
	if timeout.Attempts != 60 {
		t.Fatalf("attempts = %d, want 60", timeout.Attempts)
	}
	if n := len(transport.calls()); n != 60 {
		t.Fatalf("requests = %d, want exactly 60", n)
	}
}

func TestPollJobFailed(t *testing.T) {
	cases := []struct {
		payload map[string]any
		want    string
	}{
		{map[string]any{"status": "failed", "error": "face not detected"}, "face not detected"},
		{map[string]any{"status": "error"}, "Job processing failed"},
		{map[string]any{"status": "failed", "error": map[string]any{"message": "quota"}}, "quota"},
	}
	for _, tc := range cases {
		transport := &stubTransport{handler: sequenceHandler(tc.payload)}
		client := newPollClient(transport, &recordingSleeper{})

		_, err := client.Poll(context.Background(), "job-bad", nil)
		var failed *JobFailedError
		if !errors.As(err, &failed) {
			t.Fatalf("err = %v, want *JobFailedError", err)
		}
		if failed.Message != tc.want {
			t.Fatalf("message = %q, want %q", failed.Message, tc.want)
		}
	}
}

func TestPollTransportErrorIsNotRetried(t *testing.T) {
	transport := &stubTransport{handler: func(recordedRequest) *http.Response {
		return textResponse(http.StatusServiceUnavailable, "")
	}}
	client := newPollClient(transport, &recordingSleeper{})

	_, err := client.Poll(context.Background(), "job-1", nil)
	var transportErr *PollTransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want *PollTransportError", err)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d", transportErr.StatusCode)
	}
	if n := len(transport.calls()); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
}

func TestPollStopsWhenContextCancelled(t *testing.T) {
	transport := &stubTransport{handler: sequenceHandler(pending())}
	client := newPollClient(transport, &recordingSleeper{})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := client.Poll(ctx, "job-1", func(int) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := len(transport.calls()); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
}

func TestPollVideoEndpoint(t *testing.T) {
	transport := &stubTransport{handler: sequenceHandler(map[string]any{"status": "completed", "result": []any{map[string]any{"video": "https://cdn.example.com/v.mp4"}}})}
	client := NewClient(Options{
		BaseURL:    "https://api.example.com",
		UserID:     "user-1",
		ModelType:  "video-effects",
		HTTPClient: &http.Client{Transport: transport},
	})
	if _, err := client.Poll(context.Background(), "job-v", nil); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if path := transport.calls()[0].Path; path != "/video-gen/user-1/job-v/status" {
		t.Fatalf("path = %q", path)
	}
}

func TestSleepContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("sleep did not return promptly")
	}
}
