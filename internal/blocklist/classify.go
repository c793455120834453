package blocklist

import "strings"

// Verdict is the outcome of classifying one video instance.
type Verdict struct {
	Blocked bool
	// Reason is the keyword or channel that matched, or the inspected
	// title/channel when nothing did.
	Reason string
}

// Classify reports whether a video with the given title and channel should
// stay gated. A nil channelID disables the channel check only.
func Classify(title string, channelID *string, bl Blocklist) bool {
	return Explain(title, channelID, bl).Blocked
}

// Explain is Classify with the matching reason attached.
func Explain(title string, channelID *string, bl Blocklist) Verdict {
	lowered := strings.ToLower(title)
	for _, kw := range bl.Keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return Verdict{Blocked: true, Reason: "keyword " + kw}
		}
	}

	if channelID == nil {
		return Verdict{Reason: lowered}
	}

	channel := strings.ToLower(*channelID)
	for _, c := range bl.Channels {
		if strings.ToLower(c) == channel {
			return Verdict{Blocked: true, Reason: "channel " + c}
		}
	}
	return Verdict{Reason: channel}
}
