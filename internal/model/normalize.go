package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NameKey canonicalizes a product or supplier name for exact-match joins.
// Transcripts arrive with French accented names in whatever Unicode form the
// speech pipeline produced, so composed and decomposed spellings of the same
// name must compare equal. Matching stays case-sensitive: the catalog is the
// authority on capitalization.
func NameKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
