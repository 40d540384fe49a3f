package cleaner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
)

// Mode selects how approved items are removed
type Mode string

const (
	ModeTrash  Mode = "trash"
	ModeDelete Mode = "delete"
)

// ErrInvalidPlan is returned for plan input that cannot be applied at all
var ErrInvalidPlan = errors.New("invalid plan")

// ParseMode validates a mode name. The empty string is returned as is.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeTrash, ModeDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown apply mode %q", ErrInvalidPlan, s)
	}
}

// PlanItem is one path approved for removal. Sizes or times sent along
// with it are ignored.
type PlanItem struct {
	Path     string `json:"path"`
	Category string `json:"category,omitempty"`
}

// Plan is an untrusted list of paths to remove
type Plan struct {
	Items     []PlanItem `json:"items"`
	ApplyMode Mode       `json:"applyMode,omitempty"`
}

// ParsePlan decodes a plan from a JSON body or from plain text with one
// path per line. Blank lines and lines starting with # are ignored. Any
// malformed input rejects the whole plan.
func ParsePlan(data []byte, contentType string) (*Plan, error) {
	var plan *Plan
	var err error

	if isJSON(data, contentType) {
		plan, err = parseJSONPlan(data)
	} else {
		plan, err = parseTextPlan(data)
	}
	if err != nil {
		return nil, err
	}

	mode, err := ParseMode(string(plan.ApplyMode))
	if err != nil {
		return nil, err
	}
	plan.ApplyMode = mode

	for i, item := range plan.Items {
		if strings.TrimSpace(item.Path) == "" {
			return nil, fmt.Errorf("%w: item %d has an empty path", ErrInvalidPlan, i)
		}
	}
	return plan, nil
}

func isJSON(data []byte, contentType string) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch {
			case mt == "application/json" || strings.HasSuffix(mt, "+json"):
				return true
			case mt == "text/plain":
				return false
			}
		}
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func parseJSONPlan(data []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if plan.Items == nil {
		plan.Items = []PlanItem{}
	}
	return &plan, nil
}

func parseTextPlan(data []byte) (*Plan, error) {
	plan := &Plan{Items: []PlanItem{}}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		plan.Items = append(plan.Items, PlanItem{Path: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return plan, nil
}
