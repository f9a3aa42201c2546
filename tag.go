// Package quaytags provides the shared value types for the Quay tag
// retrieval client: the Tag record decoded from the registry API and the
// recency ordering applied to tag listings.
package quaytags

import "sort"

// Tag is a single image tag as returned by the Quay tag-listing API.
// Tags are immutable snapshots; callers always receive their own copy.
type Tag struct {
	Name           string `json:"name"`
	ManifestDigest string `json:"manifest_digest,omitempty"`
	Size           int64  `json:"size,omitempty"`
	LastModified   string `json:"last_modified,omitempty"`
	Expiration     string `json:"expiration,omitempty"`
	StartTS        *int64 `json:"start_ts,omitempty"`
	EndTS          *int64 `json:"end_ts,omitempty"`
}

// SortTimestamp returns the effective recency value for the tag: the
// start timestamp in epoch seconds, or 0 when the registry reported none.
func (t Tag) SortTimestamp() int64 {
	if t.StartTS != nil {
		return *t.StartTS
	}
	return 0
}

// moreRecent reports whether a should order before b in a recency sort.
// A tag missing its start timestamp orders after every tag that has one,
// including tags with an explicit timestamp of zero.
func moreRecent(a, b Tag) bool {
	if (a.StartTS != nil) != (b.StartTS != nil) {
		return a.StartTS != nil
	}
	return a.SortTimestamp() > b.SortTimestamp()
}

// SortByRecency orders tags most recent first, in place. The sort is
// stable: tags with equal recency keep their response order.
func SortByRecency(tags []Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		return moreRecent(tags[i], tags[j])
	})
}

// CloneTags returns an independent copy of the tag list. The Quay client
// hands copies to callers so mutation cannot leak into cached entries.
func CloneTags(tags []Tag) []Tag {
	if tags == nil {
		return nil
	}
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}

// Names projects a tag list to its tag names, preserving order.
func Names(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}
