package domain

import (
	"net/url"
	"strings"
)

// Suggestion is one candidate video surfaced to the user. VideoID is derived
// from SourceLink and may be empty when extraction fails; callers must treat
// an empty VideoID as "details unavailable", not as an error.
type Suggestion struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	SourceLink   string `json:"link"`
	VideoID      string `json:"video_id"`
}

// Normalize fills derived fields so internal components never branch on
// shape: a missing VideoID is extracted from the source link.
func (s Suggestion) Normalize() Suggestion {
	if s.VideoID == "" {
		s.VideoID = ExtractVideoID(s.SourceLink)
	}
	return s
}

// ExtractVideoID pulls the video identifier out of a YouTube watch URL.
// Supports the "v" query parameter and the youtu.be short form. Returns ""
// when the link doesn't carry an identifier.
func ExtractVideoID(link string) string {
	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	if id := u.Query().Get("v"); id != "" {
		return id
	}

	if strings.Contains(u.Host, "youtu.be") {
		if id := strings.Trim(u.Path, "/"); id != "" && !strings.Contains(id, "/") {
			return id
		}
	}

	// Embed and shorts paths carry the ID as the last path segment.
	for _, prefix := range []string{"/embed/", "/shorts/"} {
		if strings.HasPrefix(u.Path, prefix) {
			rest := strings.TrimPrefix(u.Path, prefix)
			if i := strings.Index(rest, "/"); i >= 0 {
				rest = rest[:i]
			}
			return rest
		}
	}

	return ""
}
