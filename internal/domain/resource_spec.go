package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// allowedDifference is the weighted number of differing path segments two
// URLs may have and still address the same logical resource.
const allowedDifference = 1

// redundantMarkers identify URLs that recur with only an instance id changed.
var redundantMarkers = []string{"object-layout", "/properties/"}

// ResourceSpecification identifies a logical resource: a URL plus the
// representation subtype it is requested in.
type ResourceSpecification struct {
	URL     string
	SubType string
}

// NewResourceSpecification defaults an empty subtype to json.
func NewResourceSpecification(rawURL, subType string) ResourceSpecification {
	if subType == "" {
		subType = SubTypeJSON
	}
	return ResourceSpecification{URL: rawURL, SubType: subType}
}

// IsRedundant reports whether lookups for this URL shape must use
// equivalence instead of exact matching.
func (rs ResourceSpecification) IsRedundant() bool {
	for _, m := range redundantMarkers {
		if strings.Contains(rs.URL, m) {
			return true
		}
	}
	return false
}

// Matches reports whether the entry addresses an equivalent resource.
func (rs ResourceSpecification) Matches(entry *LogEntry) bool {
	return rs.SubType == entry.SubType && AreEquivalent(rs.URL, entry.URL)
}

// MatchesExactly compares URL and subtype verbatim.
func (rs ResourceSpecification) MatchesExactly(entry *LogEntry) bool {
	return rs.SubType == entry.SubType && rs.URL == entry.URL
}

// AreEquivalent compares two URLs segment by segment. Each differing
// segment counts once, and twice unless both sides are integers, so a
// single differing instance id is tolerated and anything else is not.
func AreEquivalent(searchURL, compareURL string) bool {
	search := strings.Split(decodeHex(searchURL), "/")
	compare := strings.Split(decodeHex(compareURL), "/")
	if len(search) != len(compare) {
		return false
	}

	diff := 0
	for i, s := range search {
		c := compare[i]
		if s == c {
			continue
		}
		diff++
		if !isInteger(s) || !isInteger(c) {
			diff++
		}
		if diff > allowedDifference {
			return false
		}
	}
	return true
}

func isInteger(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// decodeHex turns percent-encoded fragments (e.g. %5B for '[') back into
// characters. Malformed escapes leave the URL untouched.
func decodeHex(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
