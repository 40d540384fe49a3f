package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDenyList holds the home-relative subtrees that are never scanned or removed
var DefaultDenyList = []string{
	"Pictures",
	"Library/Mail",
	"Library/Mobile Documents",
	"Desktop",
	"Documents",
}

// photoLibrarySuffix marks a photo-library bundle anywhere under home
const photoLibrarySuffix = ".photoslibrary"

// Decision is the result of evaluating a path against the policy
type Decision struct {
	InScope    bool
	DenyListed bool
	Symlink    bool
}

// Allowed reports whether the path may be scanned or mutated
func (d Decision) Allowed() bool {
	return d.InScope && !d.DenyListed && !d.Symlink
}

// Policy decides whether a path may be scanned or mutated.
// It is immutable after construction and safe for concurrent use.
type Policy struct {
	deny [][]string
}

// NewPolicy creates a Policy with the default deny list plus any extra
// home-relative entries.
func NewPolicy(extraDeny ...string) (*Policy, error) {
	p := &Policy{}
	for _, entry := range append(append([]string{}, DefaultDenyList...), extraDeny...) {
		if err := ValidateDenyEntry(entry); err != nil {
			return nil, err
		}
		p.deny = append(p.deny, splitSegments(filepath.Clean(filepath.FromSlash(entry))))
	}
	return p, nil
}

// ValidateDenyEntry checks that a deny-list entry is a plain home-relative path
func ValidateDenyEntry(entry string) error {
	if strings.TrimSpace(entry) == "" {
		return fmt.Errorf("deny entry must not be empty")
	}
	if filepath.IsAbs(entry) {
		return fmt.Errorf("deny entry must be relative to home: %s", entry)
	}
	clean := filepath.Clean(filepath.FromSlash(entry))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("deny entry escapes home: %s", entry)
	}
	return nil
}

// IsInHomeScope reports whether path lies strictly under home once all
// relative segments are resolved. Relative paths are never in scope.
func (p *Policy) IsInHomeScope(path, home string) bool {
	_, ok := relUnder(path, home)
	return ok
}

// IsDenyListed reports whether path falls, at a segment boundary, under a
// deny-listed subtree of home or inside a photo-library bundle.
func (p *Policy) IsDenyListed(path, home string) bool {
	rel, ok := relUnder(path, home)
	if !ok {
		return false
	}
	segs := splitSegments(rel)

	for _, deny := range p.deny {
		if hasSegmentPrefix(segs, deny) {
			return true
		}
	}

	for _, seg := range segs {
		if strings.HasSuffix(strings.ToLower(seg), photoLibrarySuffix) {
			return true
		}
	}

	return false
}

// ContainsDenyListed reports whether removing path would also remove a
// deny-listed subtree: a deny entry lies below path, or a directory at path
// holds a photo-library bundle somewhere inside. The walk does not follow
// symbolic links and stops at the first bundle found.
func (p *Policy) ContainsDenyListed(path, home string) (bool, error) {
	rel, ok := relUnder(path, home)
	if !ok {
		return false, nil
	}
	segs := splitSegments(rel)

	for _, deny := range p.deny {
		if len(deny) > len(segs) && hasSegmentPrefix(deny, segs) {
			return true, nil
		}
	}

	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}

	found := false
	err = filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if sub != path && d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), photoLibrarySuffix) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Evaluate combines scope, deny-list and symlink checks. The symlink check
// walks every component from home down to path; components that do not
// exist end the walk.
func (p *Policy) Evaluate(path, home string) Decision {
	d := Decision{InScope: p.IsInHomeScope(path, home)}
	if !d.InScope {
		return d
	}
	d.DenyListed = p.IsDenyListed(path, home)

	symlink, err := HasSymlinkComponent(path, home)
	// An unreadable component cannot be verified, so it is treated as unsafe.
	d.Symlink = symlink || err != nil
	return d
}

// HasSymlinkComponent reports whether path, or any directory between home
// and path, is a symbolic link.
func HasSymlinkComponent(path, home string) (bool, error) {
	rel, ok := relUnder(path, home)
	if !ok {
		return false, nil
	}

	cur := filepath.Clean(home)
	for _, seg := range splitSegments(rel) {
		cur = filepath.Join(cur, seg)
		info, err := os.Lstat(cur)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return true, nil
		}
	}

	return false, nil
}

// relUnder returns path relative to home when path is strictly below it
func relUnder(path, home string) (string, bool) {
	if !filepath.IsAbs(path) || !filepath.IsAbs(home) {
		return "", false
	}
	cleanPath := filepath.Clean(path)
	cleanHome := filepath.Clean(home)

	rel, err := filepath.Rel(cleanHome, cleanPath)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func splitSegments(rel string) []string {
	return strings.Split(filepath.ToSlash(rel), "/")
}

// hasSegmentPrefix compares whole segments case-insensitively, since the
// default macOS volume is case-insensitive.
func hasSegmentPrefix(segs, prefix []string) bool {
	if len(segs) < len(prefix) {
		return false
	}
	for i := range prefix {
		if !strings.EqualFold(segs[i], prefix[i]) {
			return false
		}
	}
	return true
}
