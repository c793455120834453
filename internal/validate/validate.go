package validate

import (
	"fmt"
	"net/url"
	"strings"
)

// Blocklist limits applied by the options API and file imports.
const (
	MaxEntryLength     = 200
	MaxKeywords        = 5000
	MaxChannels        = 5000
	MaxRemoteURLLength = 2000
	MaxTabIDLength     = 64
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func checkCount(values []string, max int, field string) string {
	if len(values) > max {
		return fmt.Sprintf("%s must have %d entries or fewer", field, max)
	}
	return ""
}

func checkEntries(values []string, max int, field string) string {
	if msg := checkCount(values, max, field); msg != "" {
		return msg
	}
	for _, v := range values {
		if msg := checkLen(v, MaxEntryLength, field+" entry"); msg != "" {
			return msg
		}
	}
	return ""
}

func Keywords(v []string) string { return checkEntries(v, MaxKeywords, "keywords") }
func Channels(v []string) string { return checkEntries(v, MaxChannels, "channels") }
func TabID(s string) string {
	if strings.TrimSpace(s) == "" {
		return "tab id is required"
	}
	return checkLen(s, MaxTabIDLength, "tab id")
}

// RemoteURL accepts http(s) URLs whose host has an inner dot, and s3://
// object URLs with a bucket and a key.
func RemoteURL(s string) string {
	if msg := checkLen(s, MaxRemoteURLLength, "remote URL"); msg != "" {
		return msg
	}
	u, err := url.Parse(s)
	if err != nil {
		return "remote URL is not a valid URL"
	}
	switch u.Scheme {
	case "http", "https":
		host := u.Hostname()
		dot := strings.LastIndex(host, ".")
		if dot <= 0 || dot == len(host)-1 {
			return "remote URL host must be a domain name"
		}
	case "s3":
		if u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
			return "remote URL must name a bucket and a key"
		}
	default:
		return "remote URL must use http, https or s3"
	}
	return ""
}

// FieldLimits returns a map of field names to limits for the options API.
func FieldLimits() map[string]int {
	return map[string]int{
		"entryLength":     MaxEntryLength,
		"keywords":        MaxKeywords,
		"channels":        MaxChannels,
		"remoteURLLength": MaxRemoteURLLength,
	}
}
