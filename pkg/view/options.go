package view

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidOption is returned by ParseQuery when a parameter cannot be parsed.
var ErrInvalidOption = errors.New("invalid view option")

// Options controls which part of a lineage graph a view shows.
//
// The zero value hides tasks and datasets; use DefaultOptions for the usual
// starting point.
type Options struct {
	// FocalID is the node the view is centered on. Empty means no focal node.
	FocalID string

	// Full shows every node of the graph instead of only the focal node's
	// upstream and downstream.
	Full bool

	// Compact renders all datasets without their field list.
	Compact bool

	// ShowJobs keeps task jobs (jobs with a parent). Dag jobs are always kept.
	ShowJobs bool

	// ShowDatasets keeps dataset nodes. When false, datasets are bridged by
	// synthesized job-to-job edges.
	ShowDatasets bool

	// Collapsed holds dataset IDs rendered compact regardless of Compact.
	Collapsed map[string]struct{}
}

// DefaultOptions returns options focused on focal with tasks and datasets shown.
func DefaultOptions(focal string) Options {
	return Options{FocalID: focal, ShowJobs: true, ShowDatasets: true}
}

// IsCollapsed reports whether id is in the collapsed set.
func (o Options) IsCollapsed(id string) bool {
	_, ok := o.Collapsed[id]
	return ok
}

// ToggleCollapsed returns a copy of o with id added to or removed from the
// collapsed set. The receiver's set is not modified.
func (o Options) ToggleCollapsed(id string) Options {
	next := make(map[string]struct{}, len(o.Collapsed)+1)
	for k := range o.Collapsed {
		next[k] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	o.Collapsed = next
	return o
}

// ParseCollapsed splits a comma-separated ID list into a set. Blank entries
// are ignored.
func ParseCollapsed(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// CollapsedSet builds a set from a list of IDs.
func CollapsedSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// FormatCollapsed is the inverse of ParseCollapsed. IDs are sorted so the
// result is stable.
func FormatCollapsed(set map[string]struct{}) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return strings.Join(ids, ",")
}

// ParseQuery reads view options from URL query parameters as used by the
// lineage page: nodeId, depth, isFull, isCompact, showJobs, showDatasets and
// collapsedNodes. Missing parameters keep their DefaultOptions value and a
// missing depth is returned as 0.
func ParseQuery(q url.Values) (Options, int, error) {
	opts := DefaultOptions(q.Get("nodeId"))

	flags := []struct {
		key string
		dst *bool
	}{
		{"isFull", &opts.Full},
		{"isCompact", &opts.Compact},
		{"showJobs", &opts.ShowJobs},
		{"showDatasets", &opts.ShowDatasets},
	}
	for _, f := range flags {
		raw := q.Get(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Options{}, 0, fmt.Errorf("%w: %s=%q", ErrInvalidOption, f.key, raw)
		}
		*f.dst = v
	}

	if raw := q.Get("collapsedNodes"); raw != "" {
		opts.Collapsed = ParseCollapsed(raw)
	}

	depth := 0
	if raw := q.Get("depth"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d < 0 {
			return Options{}, 0, fmt.Errorf("%w: depth=%q", ErrInvalidOption, raw)
		}
		depth = d
	}
	return opts, depth, nil
}

// Query is the inverse of ParseQuery.
func (o Options) Query(depth int) url.Values {
	q := url.Values{}
	if o.FocalID != "" {
		q.Set("nodeId", o.FocalID)
	}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	q.Set("isFull", strconv.FormatBool(o.Full))
	q.Set("isCompact", strconv.FormatBool(o.Compact))
	q.Set("showJobs", strconv.FormatBool(o.ShowJobs))
	q.Set("showDatasets", strconv.FormatBool(o.ShowDatasets))
	if len(o.Collapsed) > 0 {
		q.Set("collapsedNodes", FormatCollapsed(o.Collapsed))
	}
	return q
}
