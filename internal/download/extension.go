package download

import (
	"regexp"
	"strings"
)

var urlExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|mp4|webm)`)

// Extension picks a file extension from the response content type, then from
// the URL, and falls back to png.
func Extension(rawURL, contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "webp"):
		return "webp"
	case strings.Contains(ct, "mp4"):
		return "mp4"
	case strings.Contains(ct, "webm"):
		return "webm"
	}
	if m := urlExtPattern.FindStringSubmatch(rawURL); m != nil {
		ext := strings.ToLower(m[1])
		if ext == "jpeg" {
			ext = "jpg"
		}
		return ext
	}
	return "png"
}
