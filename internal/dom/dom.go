// Package dom reads the parts of a watch page the gate cares about from an
// HTML snapshot: the playing video element, the title text and the channel.
package dom

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// HandleAttr is stamped on video elements by the page observer so that a
	// serialized snapshot still carries element identity.
	HandleAttr = "data-videogate-handle"

	videoSelector       = "video"
	titleSelector       = "ytd-watch-metadata #title h1 yt-formatted-string"
	channelLinkSelector = "ytd-channel-name a[href]"
	channelNameSelector = "ytd-channel-name yt-formatted-string"
)

var channelHandleRegex = regexp.MustCompile(`^/@([^/?#]+)`)

// Snapshot is what one DOM mutation batch tells us about the page.
type Snapshot struct {
	// VideoHandle identifies the video element; empty when there is none.
	VideoHandle string
	Title       string
	HasTitle    bool
	// ChannelID is nil when neither channel source is present.
	ChannelID *string
}

func (s Snapshot) HasVideo() bool { return s.VideoHandle != "" }

// Parse reads a serialized document.
func Parse(r io.Reader) (Snapshot, error) {
	node, err := html.Parse(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse html: %w", err)
	}
	return FromNode(node), nil
}

// FromNode reads an already parsed document.
func FromNode(node *html.Node) Snapshot {
	doc := goquery.NewDocumentFromNode(node)

	var s Snapshot
	if video := doc.Find(videoSelector).First(); video.Length() > 0 {
		s.VideoHandle = videoHandle(video)
	}
	if title := doc.Find(titleSelector).First(); title.Length() > 0 {
		s.Title = title.Text()
		s.HasTitle = true
	}
	s.ChannelID = ChannelIdentifier(doc.Selection)
	return s
}

// ChannelIdentifier extracts the channel handle from the structured link
// (/@handle) and falls back to the displayed channel name.
func ChannelIdentifier(sel *goquery.Selection) *string {
	if link := sel.Find(channelLinkSelector).First(); link.Length() > 0 {
		href, _ := link.Attr("href")
		if m := channelHandleRegex.FindStringSubmatch(href); m != nil {
			id := strings.ToLower(m[1])
			return &id
		}
	}

	name := strings.ToLower(strings.TrimSpace(sel.Find(channelNameSelector).First().Text()))
	if name == "" {
		return nil
	}
	return &name
}

func videoHandle(video *goquery.Selection) string {
	for _, attr := range []string{HandleAttr, "id", "src"} {
		if v, ok := video.Attr(attr); ok && v != "" {
			return v
		}
	}
	// A bare <video> still counts as present; it is the only one on the page.
	return videoSelector
}
