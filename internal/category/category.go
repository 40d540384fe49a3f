// Package category maps cleanup categories to the home directories they
// cover and parses user category selections.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// Category is a named group of roots sharing a cleanup rationale
type Category string

const (
	UserCaches Category = "user-caches"
	Browsers   Category = "browsers"
	Dev        Category = "dev"
	Pkg        Category = "pkg"
	Downloads  Category = "downloads"
	Docker     Category = "docker"
	Deep       Category = "deep"
)

// All lists every category in canonical order
var All = []Category{UserCaches, Browsers, Dev, Pkg, Downloads, Docker, Deep}

// allKeyword selects every category
const allKeyword = "all"

var (
	// ErrUnknownCategory is returned for a selector that names no category
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoSelection is returned when a selection resolves to no category
	ErrNoSelection = errors.New("no categories selected")
)

// Parse converts a name to a Category
func Parse(name string) (Category, error) {
	n := Category(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range All {
		if c == n {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ParseSelection resolves include and exclude selectors to the effective
// categories. Entries may be comma separated and "all" expands to every
// category. Include order is kept, duplicates dropped. Scanning never
// happens implicitly, so an empty result is an error.
func ParseSelection(include, exclude []string) ([]Category, error) {
	included, err := expand(include)
	if err != nil {
		return nil, err
	}
	excluded, err := expand(exclude)
	if err != nil {
		return nil, err
	}

	skip := make(map[Category]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}

	seen := make(map[Category]bool, len(included))
	var out []Category
	for _, c := range included {
		if skip[c] || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, ErrNoSelection
	}
	return out, nil
}

func expand(selectors []string) ([]Category, error) {
	var out []Category
	for _, selector := range selectors {
		for _, name := range strings.Split(selector, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if strings.EqualFold(name, allKeyword) {
				out = append(out, All...)
				continue
			}
			c, err := Parse(name)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// Strings converts categories to their names
func Strings(categories []Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// Description returns a short human description of the category
func (c Category) Description() string {
	switch c {
	case UserCaches:
		return "Per-user application caches"
	case Browsers:
		return "Web browser caches"
	case Dev:
		return "Developer build artifacts and toolchain caches"
	case Pkg:
		return "Package manager download caches"
	case Downloads:
		return "Files in the Downloads folder"
	case Docker:
		return "Reserved for container runtime data (no roots)"
	case Deep:
		return "App containers, simulator devices, archives and logs"
	default:
		return ""
	}
}
