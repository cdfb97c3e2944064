package domain

import "regexp"

// MediaKind distinguishes how a result is displayed and downloaded.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

var videoURLPattern = regexp.MustCompile(`(?i)\.(mp4|webm)(\?.*)?$`)

// MediaKindForURL classifies a result URL by its extension.
func MediaKindForURL(url string) MediaKind {
	if videoURLPattern.MatchString(url) {
		return MediaKindVideo
	}
	return MediaKindImage
}
