package blocklist

import (
	"strings"
	"time"
)

// Blocklist is the set of title keywords and exact channel identifiers that
// keep a video gated. Entries are always lowercase.
type Blocklist struct {
	Keywords  []string   `json:"keywords"`
	Channels  []string   `json:"channels"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// RemoteConfig describes whether and where to fetch a hosted blocklist.
type RemoteConfig struct {
	Enabled       bool       `json:"enabled"`
	URL           string     `json:"url"`
	LastFetchedAt *time.Time `json:"lastFetchedAt"`
	LastError     *string    `json:"lastError"`
}

// Usable reports whether a fetch should be attempted.
func (r RemoteConfig) Usable() bool {
	return r.Enabled && r.URL != ""
}

// New builds a Blocklist stamped with updatedAt, lowercasing every entry.
func New(keywords, channels []string, updatedAt time.Time) Blocklist {
	bl := Blocklist{
		Keywords:  lowerAll(keywords),
		Channels:  lowerAll(channels),
		UpdatedAt: &updatedAt,
	}
	return bl
}

// Normalize returns a copy of bl with lowercase entries.
func Normalize(bl Blocklist) Blocklist {
	return Blocklist{
		Keywords:  lowerAll(bl.Keywords),
		Channels:  lowerAll(bl.Channels),
		UpdatedAt: bl.UpdatedAt,
	}
}

// ParseLines splits a newline separated form value into entries, dropping
// empty lines.
func ParseLines(s string) []string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (bl Blocklist) IsEmpty() bool {
	return len(bl.Keywords) == 0 && len(bl.Channels) == 0
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
