package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans post HTML, keeping user-generated-content markup.
func Sanitize(input string) string {
	return bodyPolicy.Sanitize(input)
}

// SanitizePlain strips all markup, for titles, bios and usernames.
func SanitizePlain(input string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(input))
}
