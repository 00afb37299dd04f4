package models

import "slices"

// HasMember reports whether id is in set.
func HasMember(set []string, id string) bool {
	return slices.Contains(set, id)
}

// AddMember returns set with id added once.
func AddMember(set []string, id string) []string {
	if HasMember(set, id) {
		return set
	}
	return append(set, id)
}

// RemoveMember returns set without id. The result never aliases set.
func RemoveMember(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, m := range set {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

func cloneMembers(set []string) []string {
	if set == nil {
		return nil
	}
	return append([]string(nil), set...)
}
