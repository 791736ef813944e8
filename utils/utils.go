package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// Matches literal http(s) URLs embedded in free text. The character class is
// intentionally permissive: letters, digits, $-_@.&+!*(), and percent escapes.
var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$\-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)

// Characters that are invalid in file names on common filesystems.
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// ExtractLinks returns the URLs embedded in text, in scan order. A URL that
// appears more than once is returned only for its first occurrence.
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	links := []string{}
	for _, m := range matches {
		if !ContainsString(links, m) {
			links = append(links, m)
		}
	}
	return links
}

// ExtractHandleFromURL extracts the handle from a Bluesky profile URL, e.g.
// https://bsky.app/profile/republik.ch -> republik.ch. Anything that is not a
// recognizable profile URL is returned as-is and left for the API to reject.
func ExtractHandleFromURL(profile string) string {
	if !strings.HasPrefix(profile, "http://") && !strings.HasPrefix(profile, "https://") {
		return profile
	}

	parsed, err := url.Parse(profile)
	if err != nil {
		return profile
	}
	if strings.Contains(parsed.Host, "bsky.app") && strings.Contains(parsed.Path, "/profile/") {
		handle := strings.TrimPrefix(parsed.Path, "/profile/")
		return strings.Trim(handle, "/")
	}
	return profile
}

// SanitizeFilename replaces characters that are invalid in file names with
// underscores and caps the length at 200 runes.
func SanitizeFilename(filename string) string {
	filename = unsafeFilenameChars.ReplaceAllString(filename, "_")
	runes := []rune(filename)
	if len(runes) > 200 {
		filename = string(runes[:200])
	}
	return filename
}

// TruncateText shortens text to at most maxLength runes, appending an
// ellipsis when anything was cut off.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}

// DedupStrings removes duplicates from the provided slice, keeping the first
// occurrence of each string and preserving order.
func DedupStrings(list []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ContainsString returns true iff the provided string slice hay contains
// string needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}
