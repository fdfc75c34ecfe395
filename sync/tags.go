package sync

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// DefaultTagDelimiters separate the tags of the Action Network tags column.
const DefaultTagDelimiters = ",|"

// SplitTags splits a tag list on any of delimiters, trimming each tag.
// Empty tags are dropped and a tag repeated in value is returned once.
func SplitTags(value string, delimiters string) []string {
	if delimiters == "" {
		delimiters = DefaultTagDelimiters
	}
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})
	var result []string
	seen := make(map[string]bool)
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// MergeTags returns the union of existing and tags, keeping the order of existing,
// and the tags that were not already present. Tag names compare case insensitively.
func MergeTags(existing []string, tags []string) (merged []string, added []string) {
	seen := make(map[string]bool)
	for _, t := range existing {
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, t)
	}
	for _, t := range tags {
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, t)
		added = append(added, t)
	}
	return merged, added
}

type TagCount struct {
	Tag   string
	Count int
}

// TagCounter accumulates tag occurrence counts across rows.
type TagCounter struct {
	Delimiters string
	counts     map[string]int
}

func NewTagCounter(delimiters string) *TagCounter {
	return &TagCounter{
		Delimiters: delimiters,
		counts:     make(map[string]int),
	}
}

// Add counts the tags of one tag list.
func (c *TagCounter) Add(value string) {
	for _, tag := range SplitTags(value, c.Delimiters) {
		c.counts[tag]++
	}
}

// AddRows counts the tags in column for every row.
func (c *TagCounter) AddRows(rows Rows, column string) error {
	for rows.Next() {
		c.Add(rows.Row().Get(column))
	}
	return rows.Err()
}

// Sorted returns the counts by descending count, then by tag.
func (c *TagCounter) Sorted() []TagCount {
	result := make([]TagCount, 0, len(c.counts))
	for tag, count := range c.counts {
		result = append(result, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result
}

// CountTags counts the tags in column across rows.
func CountTags(rows Rows, column string, delimiters string) ([]TagCount, error) {
	counter := NewTagCounter(delimiters)
	if err := counter.AddRows(rows, column); err != nil {
		return nil, err
	}
	return counter.Sorted(), nil
}

// WriteTagCounts writes one count<TAB>tag line per tag followed by the number of distinct tags.
func WriteTagCounts(w io.Writer, counts []TagCount) error {
	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", c.Count, c.Tag); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d\tTOTAL\n", len(counts))
	return err
}

// TagMapping renames Action Network tags to EveryAction code names.
// An old tag mapped to no names is dropped.
type TagMapping map[string][]string

// LoadTagMapping reads a CSV file with old and new columns.
// The new column may list several comma separated names.
func LoadTagMapping(filename string) (TagMapping, error) {
	reader, err := OpenRowReader(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	mapping, err := ReadTagMapping(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mapping, nil
}

// ReadTagMapping reads a tag mapping from an open CSV reader.
func ReadTagMapping(reader *RowReader) (TagMapping, error) {
	for _, column := range []string{"old", "new"} {
		if !reader.HasColumn(column) {
			return nil, fmt.Errorf("expected column '%s'", column)
		}
	}
	result := make(TagMapping)
	for reader.Next() {
		row := reader.Row()
		old := strings.TrimSpace(row.Get("old"))
		if old == "" {
			continue
		}
		var names []string
		for _, name := range strings.Split(row.Get("new"), ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		result[old] = append(result[old], names...)
	}
	return result, reader.Err()
}

// Apply maps tags to EveryAction names. A nil mapping passes tags through;
// otherwise tags without a mapping are dropped.
func (m TagMapping) Apply(tags []string) []string {
	if m == nil {
		return tags
	}
	var result []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		for _, name := range m[tag] {
			if seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}
