package dom

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const watchPage = `<html><body>
<div id="movie_player"><video data-videogate-handle="7" src="blob:https://www.youtube.com/abc"></video></div>
<ytd-watch-metadata>
  <div id="title"><h1><yt-formatted-string>URGENT message</yt-formatted-string></h1></div>
  <ytd-channel-name><a href="/@BadChannel/videos">Bad Channel</a><yt-formatted-string> Bad Channel </yt-formatted-string></ytd-channel-name>
</ytd-watch-metadata>
</body></html>`

func mustParse(t *testing.T, doc string) Snapshot {
	t.Helper()
	s, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return s
}

func TestParseWatchPage(t *testing.T) {
	s := mustParse(t, watchPage)

	if s.VideoHandle != "7" {
		t.Errorf("expected handle 7, got %q", s.VideoHandle)
	}
	if !s.HasTitle || s.Title != "URGENT message" {
		t.Errorf("unexpected title %q (has=%v)", s.Title, s.HasTitle)
	}
	if s.ChannelID == nil || *s.ChannelID != "badchannel" {
		t.Errorf("expected channel badchannel, got %v", s.ChannelID)
	}
}

func TestParseWithoutVideo(t *testing.T) {
	s := mustParse(t, `<html><body><ytd-watch-metadata><div id="title"><h1><yt-formatted-string>x</yt-formatted-string></h1></div></ytd-watch-metadata></body></html>`)
	if s.HasVideo() {
		t.Error("expected no video")
	}
	if !s.HasTitle {
		t.Error("expected a title")
	}
}

func TestParseWithoutTitle(t *testing.T) {
	s := mustParse(t, `<html><body><video id="v1"></video></body></html>`)
	if s.VideoHandle != "v1" {
		t.Errorf("expected handle from id, got %q", s.VideoHandle)
	}
	if s.HasTitle {
		t.Error("expected no title")
	}
}

func TestVideoHandleFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{"handle attribute wins", `<video data-videogate-handle="3" id="a" src="b"></video>`, "3"},
		{"id before src", `<video id="a" src="b"></video>`, "a"},
		{"src", `<video src="b"></video>`, "b"},
		{"bare element", `<video></video>`, "video"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, "<html><body>"+tt.doc+"</body></html>")
			if s.VideoHandle != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, s.VideoHandle)
			}
		})
	}
}

func TestChannelIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected *string
	}{
		{
			name:     "handle link",
			doc:      `<ytd-channel-name><a href="/@SomeOne">x</a></ytd-channel-name>`,
			expected: strPtr("someone"),
		},
		{
			name:     "handle link with query",
			doc:      `<ytd-channel-name><a href="/@abc?si=1">x</a></ytd-channel-name>`,
			expected: strPtr("abc"),
		},
		{
			name:     "legacy channel link falls back to name",
			doc:      `<ytd-channel-name><a href="/channel/UC123">x</a><yt-formatted-string>  Old Name </yt-formatted-string></ytd-channel-name>`,
			expected: strPtr("old name"),
		},
		{
			name:     "name only",
			doc:      `<ytd-channel-name><yt-formatted-string>Display</yt-formatted-string></ytd-channel-name>`,
			expected: strPtr("display"),
		},
		{
			name:     "absent",
			doc:      `<div></div>`,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + tt.doc + "</body></html>"))
			if err != nil {
				t.Fatal(err)
			}
			got := ChannelIdentifier(doc.Selection)
			switch {
			case tt.expected == nil && got != nil:
				t.Errorf("expected nil, got %q", *got)
			case tt.expected != nil && got == nil:
				t.Errorf("expected %q, got nil", *tt.expected)
			case tt.expected != nil && *got != *tt.expected:
				t.Errorf("expected %q, got %q", *tt.expected, *got)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
