package domain

import (
	"fmt"
	"regexp"
)

// VideoPlatform identifies where a creator's intro video is hosted
type VideoPlatform string

const (
	VideoPlatformYouTube VideoPlatform = "youtube"
	VideoPlatformLoom    VideoPlatform = "loom"
)

var (
	youTubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	}
	loomPattern = regexp.MustCompile(`loom\.com/share/([a-zA-Z0-9]+)`)
)

// VideoRef is a recognised video link
type VideoRef struct {
	Platform VideoPlatform `json:"platform"`
	ID       string        `json:"id"`
}

// ParseVideoURL recognises YouTube and Loom links; ok is false otherwise
func ParseVideoURL(raw string) (VideoRef, bool) {
	for _, p := range youTubePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return VideoRef{Platform: VideoPlatformYouTube, ID: m[1]}, true
		}
	}
	if m := loomPattern.FindStringSubmatch(raw); m != nil {
		return VideoRef{Platform: VideoPlatformLoom, ID: m[1]}, true
	}
	return VideoRef{}, false
}

// ThumbnailURL returns a still image for the video. Loom has no static
// thumbnail URL so it yields "".
func (v VideoRef) ThumbnailURL() string {
	if v.Platform == VideoPlatformYouTube {
		return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", v.ID)
	}
	return ""
}

// EmbedURL returns the player URL for the video
func (v VideoRef) EmbedURL() string {
	switch v.Platform {
	case VideoPlatformYouTube:
		return "https://www.youtube.com/embed/" + v.ID
	case VideoPlatformLoom:
		return "https://www.loom.com/embed/" + v.ID
	}
	return ""
}
