package zn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// ResourceKind describes how one remote collection is listed and searched.
// ServerFilter marks endpoints that accept a ?name= query; the server
// treats it as a substring filter (a superset of exact matches), so exact
// matching always happens client-side. Endpoints without server-side
// filtering are fetched whole, bounded by ListLimit.
type ResourceKind struct {
	Path         string
	ServerFilter bool
	ListLimit    int
}

// The collections the CLI operates on.
var (
	Targets         = ResourceKind{Path: "targets", ServerFilter: true, ListLimit: 3000}
	Policies        = ResourceKind{Path: "policies", ServerFilter: true, ListLimit: 3000}
	Applications    = ResourceKind{Path: "applications", ServerFilter: true, ListLimit: 3000}
	Users           = ResourceKind{Path: "users", ServerFilter: false, ListLimit: 1000}
	Secrets         = ResourceKind{Path: "secrets", ServerFilter: false, ListLimit: 10000}
	JobsKind        = ResourceKind{Path: "jobs", ServerFilter: false, ListLimit: 3000}
	SyntheticIssues = ResourceKind{Path: "syntheticIssues", ServerFilter: false, ListLimit: 10000}
)

// KindByName maps a CLI resource-kind argument to its ResourceKind.
func KindByName(name string) (ResourceKind, error) {
	switch strings.ToLower(name) {
	case "target", "targets":
		return Targets, nil
	case "policy", "policies":
		return Policies, nil
	case "application", "applications":
		return Applications, nil
	case "user", "users":
		return Users, nil
	case "secret", "secrets":
		return Secrets, nil
	case "job", "jobs":
		return JobsKind, nil
	case "issue", "issues", "syntheticissues":
		return SyntheticIssues, nil
	}
	return ResourceKind{}, fmt.Errorf("unknown resource kind %q", name)
}

// namedItem is the slice of a list entry the resolver needs. Most
// collections nest the name under data; a few carry it at the top level.
type namedItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Data struct {
		Name string `json:"name"`
	} `json:"data"`
}

func (n *namedItem) name() string {
	if n.Data.Name != "" {
		return n.Data.Name
	}
	return n.Name
}

// Resolve looks up a resource by name and enforces zero-one-or-error
// cardinality over case-insensitive exact matches. It returns the ID on a
// single match, ErrNotFound on zero, and *AmbiguousNameError on more.
// Resolve never creates anything.
func (c *Client) Resolve(ctx context.Context, kind ResourceKind, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("resource name cannot be empty")
	}
	path := fmt.Sprintf("%s?limit=%d", kind.Path, kind.ListLimit)
	if kind.ServerFilter {
		path = fmt.Sprintf("%s?name=%s&limit=%d", kind.Path, url.QueryEscape(name), kind.ListLimit)
	}
	raw, err := c.Get(ctx, path)
	if err != nil {
		return "", err
	}
	classified, err := Classify(raw)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", kind.Path, err)
	}
	page, err := ParseListPage(classified)
	if err != nil {
		return "", fmt.Errorf("listing %s: %w", kind.Path, err)
	}

	matches := exactMatches(page.Items, name)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", kind.Path, name, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousNameError{Kind: kind.Path, Name: name, IDs: matches}
	}
}

// exactMatches returns the IDs of the items whose name equals name
// case-insensitively. Items that fail to decode are skipped; the server's
// looser filter may hand back shapes we do not care about.
func exactMatches(items []json.RawMessage, name string) []string {
	candidates := lo.FilterMap(items, func(item json.RawMessage, _ int) (string, bool) {
		var entry namedItem
		if err := json.Unmarshal(item, &entry); err != nil || entry.ID == "" {
			return "", false
		}
		if !strings.EqualFold(entry.name(), name) {
			return "", false
		}
		return entry.ID, true
	})
	return candidates
}
