package cmd

import (
	"fmt"
	"strings"

	"github.com/reelshare/backend/internal/cli/api"
)

// resolveList finds a visible list by full id, id prefix or name.
func resolveList(client *api.Client, ref string) (*api.List, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("list reference is empty")
	}

	var resp api.Response[[]api.List]
	if err := client.Get("/lists", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}

	var matches []api.List
	for _, l := range resp.Data {
		if l.ID == ref {
			return &l, nil
		}
		if strings.HasPrefix(l.ID, ref) || strings.EqualFold(l.Name, ref) {
			matches = append(matches, l)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no list matches %q", ref)
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.ID[:min(8, len(m.ID))]))
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
	}
}
