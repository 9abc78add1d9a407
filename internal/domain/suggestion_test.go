package domain

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"embed path", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts path", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"empty link", "", ""},
		{"unrelated URL", "https://example.com/video/123", ""},
		{"watch URL without v", "https://www.youtube.com/watch?list=PL123", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVideoID(tc.link); got != tc.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tc.link, got, tc.want)
			}
		})
	}
}

func TestSuggestionNormalize(t *testing.T) {
	s := Suggestion{SourceLink: "https://www.youtube.com/watch?v=abc123xyz00"}
	if got := s.Normalize().VideoID; got != "abc123xyz00" {
		t.Errorf("Normalize derived %q", got)
	}

	// An explicit VideoID wins over the link.
	s = Suggestion{VideoID: "explicit", SourceLink: "https://www.youtube.com/watch?v=other"}
	if got := s.Normalize().VideoID; got != "explicit" {
		t.Errorf("Normalize overwrote explicit ID with %q", got)
	}
}

func TestVideoDetailsSuggestion(t *testing.T) {
	v := VideoDetails{
		VideoID:  "abc",
		Title:    "A Title",
		VideoURL: "https://www.youtube.com/watch?v=abc",
	}
	sug := v.Suggestion()
	if sug.VideoID != "abc" || sug.Title != "A Title" || sug.SourceLink != v.VideoURL {
		t.Errorf("conversion produced %+v", sug)
	}

	var nilDetails *VideoDetails
	if got := nilDetails.Suggestion(); got != (Suggestion{}) {
		t.Errorf("nil receiver produced %+v", got)
	}
}
