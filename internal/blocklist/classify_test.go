package blocklist

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func ptr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		channelID *string
		bl        Blocklist
		expected  bool
	}{
		{
			name:     "keyword matches regardless of title case",
			title:    "URGENT message",
			bl:       Blocklist{Keywords: []string{"urgent"}, Channels: []string{}},
			expected: true,
		},
		{
			name:      "exact channel match",
			title:     "anything",
			channelID: ptr("badchannel"),
			bl:        Blocklist{Keywords: []string{}, Channels: []string{"badchannel"}},
			expected:  true,
		},
		{
			name:      "channel prefix is not a match",
			title:     "anything",
			channelID: ptr("badchannelx"),
			bl:        Blocklist{Keywords: []string{}, Channels: []string{"badchannel"}},
			expected:  false,
		},
		{
			name:     "nil channel disables channel check only",
			title:    "breaking news today",
			bl:       Blocklist{Keywords: []string{"news"}, Channels: []string{"badchannel"}},
			expected: true,
		},
		{
			name:     "nil channel and no keyword match",
			title:    "cooking pasta",
			bl:       Blocklist{Keywords: []string{"news"}, Channels: []string{"badchannel"}},
			expected: false,
		},
		{
			name:     "empty blocklist",
			title:    "ok",
			bl:       Blocklist{},
			expected: false,
		},
		{
			name:     "keyword inside a word",
			title:    "Unbelievable",
			bl:       Blocklist{Keywords: []string{"believ"}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.channelID, tt.bl)
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestExplainReportsMatch(t *testing.T) {
	v := Explain("URGENT message", nil, Blocklist{Keywords: []string{"urgent"}})
	if !v.Blocked || v.Reason != "keyword urgent" {
		t.Errorf("unexpected verdict %+v", v)
	}

	v = Explain("fine", ptr("somechannel"), Blocklist{Channels: []string{"other"}})
	if v.Blocked || v.Reason != "somechannel" {
		t.Errorf("unexpected verdict %+v", v)
	}
}

var word = rapid.StringMatching(`[a-zA-Z]{0,6}`)

func blocklistGen() *rapid.Generator[Blocklist] {
	return rapid.Custom(func(t *rapid.T) Blocklist {
		return Blocklist{
			Keywords: rapid.SliceOfN(rapid.StringMatching(`[a-zA-Z]{1,4}`), 0, 4).Draw(t, "keywords"),
			Channels: rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}`), 0, 4).Draw(t, "channels"),
		}
	})
}

func TestClassifyTitleProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bl := blocklistGen().Draw(t, "blocklist")
		title := word.Draw(t, "prefix") + word.Draw(t, "middle") + word.Draw(t, "suffix")

		want := false
		for _, kw := range bl.Keywords {
			if strings.Contains(strings.ToLower(title), strings.ToLower(kw)) {
				want = true
			}
		}

		if got := Classify(title, nil, bl); got != want {
			t.Fatalf("Classify(%q, nil, %v) = %v, want %v", title, bl, got, want)
		}
	})
}

func TestClassifyChannelProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bl := blocklistGen().Draw(t, "blocklist")
		bl.Keywords = nil
		channel := rapid.StringMatching(`[a-zA-Z]{1,6}`).Draw(t, "channel")

		want := false
		for _, c := range bl.Channels {
			if c == strings.ToLower(channel) {
				want = true
			}
		}

		if got := Classify("title", &channel, bl); got != want {
			t.Fatalf("Classify(_, %q, %v) = %v, want %v", channel, bl, got, want)
		}
	})
}

func TestClassifyIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bl := blocklistGen().Draw(t, "blocklist")
		title := word.Draw(t, "title")
		var channel *string
		if rapid.Bool().Draw(t, "hasChannel") {
			c := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "channel")
			channel = &c
		}

		first := Classify(title, channel, bl)
		second := Classify(title, channel, bl)
		if first != second {
			t.Fatalf("verdict changed between calls: %v then %v", first, second)
		}
	})
}
