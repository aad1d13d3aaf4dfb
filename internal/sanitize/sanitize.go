// Package sanitize provides defensive cleanup for user-generated chat text.
// Uses bluemonday's strict policy to strip any HTML markup (script tags,
// event handlers, javascript: URLs) from message bodies and display names
// before they are stored. Rendering still escapes everything; stripping at
// the write path keeps stored data clean for any future consumer.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing user text.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first
// call. StrictPolicy allows no elements or attributes at all -- chat messages
// and display names are plain text.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML markup from user-provided text and trims surrounding
// whitespace. This MUST be called on message bodies and display names before
// storing them in the database.
//
// bluemonday entity-encodes the text it keeps, so the result is unescaped
// back to plain text. Stored values are plain text; escaping happens once,
// at render time.
func Text(input string) string {
	if input == "" {
		return ""
	}
	stripped := getPolicy().Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
