// Package checklist provides the required-document checklist model.
//
// A checklist item is one required-document slot for a fiscal year,
// assigned to a responsible party (PIC). Items are defined externally
// in per-year YAML manifests; this engine treats them as read-only
// input for verification and grouping.
package checklist

import (
	"fmt"
	"sort"
)

// DefaultGroup is the grouping key used for items with no assigned PIC.
const DefaultGroup = "unassigned"

// Item represents one required-document slot for a fiscal year.
type Item struct {
	// ID is unique within a fiscal year.
	ID int `yaml:"id"`

	// PIC is the responsible party assigned to fulfill this item.
	// May be empty; grouping then falls back to a caller-supplied key.
	PIC string `yaml:"pic"`

	// Year is the fiscal year this item belongs to.
	Year int `yaml:"year"`

	// Description is the human-readable requirement text.
	Description string `yaml:"description"`

	// Aspect is the category tag (e.g. "finance", "legal").
	Aspect string `yaml:"aspect,omitempty"`
}

// Validate checks that the item has usable field values.
func (it *Item) Validate() error {
	if it.ID <= 0 {
		return fmt.Errorf("id must be positive (got %d)", it.ID)
	}
	if it.Year <= 0 {
		return fmt.Errorf("year must be positive (got %d)", it.Year)
	}
	if it.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// Group returns the grouping key for batched verification: the PIC name,
// or fallback when the item has no assigned party. An empty fallback
// resolves to DefaultGroup.
func (it *Item) Group(fallback string) string {
	if it.PIC != "" {
		return it.PIC
	}
	if fallback != "" {
		return fallback
	}
	return DefaultGroup
}

// GroupByPIC partitions items by responsible party, using fallback for
// unassigned items. The returned group names are sorted so callers
// iterate in a stable order.
func GroupByPIC(items []Item, fallback string) (map[string][]Item, []string) {
	groups := make(map[string][]Item)
	for _, it := range items {
		key := it.Group(fallback)
		groups[key] = append(groups[key], it)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	return groups, names
}

// Partition splits ids into consecutive batches of at most size elements.
// A non-positive size is treated as 1. An empty input yields zero batches.
func Partition(ids []int, size int) [][]int {
	if size <= 0 {
		size = 1
	}
	if len(ids) == 0 {
		return nil
	}

	batches := make([][]int, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// IDs returns the item identifiers in input order.
func IDs(items []Item) []int {
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
