package textutil

import (
	"regexp"
	"strings"

	"github.com/kyokomi/emoji/v2"
)

var (
	reMultiSpace          = regexp.MustCompile(`( )+`)
	reMoreThan2Linebreaks = regexp.MustCompile(`(\n){2,}`)
)

// SmartTrim collapses runs of spaces and excess blank lines while keeping
// intentional line structure.
func SmartTrim(s string) string {
	oldLines := strings.Split(s, "\n")
	newLines := make([]string, 0, len(oldLines))
	for _, line := range oldLines {
		line = strings.TrimSpace(reMultiSpace.ReplaceAllString(line, "$1"))
		newLines = append(newLines, line)
	}
	s = strings.Join(newLines, "\n")
	s = reMoreThan2Linebreaks.ReplaceAllString(s, "$1$1")
	return strings.TrimSpace(s)
}

// ExpandEmoji replaces :shortcodes: like :wave: with their emoji.
// Unknown codes pass through untouched.
func ExpandEmoji(s string) string {
	return strings.TrimSpace(emoji.Sprint(s))
}

// NormalizeMessage is applied to every message body before persisting.
func NormalizeMessage(s string) string {
	return ExpandEmoji(SmartTrim(s))
}
