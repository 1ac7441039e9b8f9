package oauthmodel

import "strings"

// DedupeScopes trims scopes and drops empty and repeated entries, keeping order.
func DedupeScopes(scopes []string) []string {
	seen := make(map[string]struct{}, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// JoinScopes returns the provider's comma separated scope parameter.
func JoinScopes(scopes []string) string {
	return strings.Join(DedupeScopes(scopes), ",")
}
