package query

import (
	"slices"

	"github.com/yabaapp/yaba-server/internal/domain"
)

// Selection is the outcome of resolving a tag filter against the owner's tags.
type Selection struct {
	// Restrict is false when no tag filter was given.
	Restrict bool
	// Empty means the filter can match nothing, so the fetch short-circuits.
	Empty bool
	// TagIDs are the resolved, de-duplicated tag IDs.
	TagIDs []string
}

// TagSelection resolves names through resolved (TagKey to tag ID).
//
// Under match-all a name that does not resolve can never be matched, so the
// whole selection is empty. Under match-any unresolved names are dropped and
// the selection is empty only when none resolve.
func TagSelection(names []string, resolved map[string]string, matchAll bool) Selection {
	if len(names) == 0 {
		return Selection{}
	}

	sel := Selection{Restrict: true}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		tagID, ok := resolved[domain.TagKey(name)]
		if !ok {
			if matchAll {
				return Selection{Restrict: true, Empty: true}
			}
			continue
		}
		if !seen[tagID] {
			seen[tagID] = true
			sel.TagIDs = append(sel.TagIDs, tagID)
		}
	}
	slices.Sort(sel.TagIDs)
	sel.Empty = len(sel.TagIDs) == 0
	return sel
}

// MatchAll returns the IDs of transactions linked to every tag in tagIDs.
// Links to tags outside tagIDs are ignored and repeated links count once,
// so a transaction qualifies iff |linked ∩ tagIDs| == |tagIDs|.
func MatchAll(links []domain.Link, tagIDs []string) []string {
	want := toSet(tagIDs)
	if len(want) == 0 {
		return nil
	}

	have := make(map[string]map[string]bool)
	for _, l := range links {
		if !want[l.TagID] {
			continue
		}
		set, ok := have[l.TransactionID]
		if !ok {
			set = make(map[string]bool, len(want))
			have[l.TransactionID] = set
		}
		set[l.TagID] = true
	}

	var out []string
	for txnID, set := range have {
		if len(set) == len(want) {
			out = append(out, txnID)
		}
	}
	slices.Sort(out)
	return out
}

// MatchAny returns the IDs of transactions linked to at least one tag in tagIDs.
func MatchAny(links []domain.Link, tagIDs []string) []string {
	want := toSet(tagIDs)
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		if want[l.TagID] && !seen[l.TransactionID] {
			seen[l.TransactionID] = true
			out = append(out, l.TransactionID)
		}
	}
	slices.Sort(out)
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
