package generator

import (
	"context"
	"strings"
	"unicode"
)

// TidyEnhancer is the default Enhancer: it trims, deduplicates and
// capitalizes scope lines, folding notable job notes into the scope.
type TidyEnhancer struct{}

// Make sure we conform to Enhancer interface
var _ Enhancer = (*TidyEnhancer)(nil)

func NewTidyEnhancer() *TidyEnhancer {
	return &TidyEnhancer{}
}

func (e *TidyEnhancer) Enhance(ctx context.Context, trade string, scope []string, notes string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(scope))
	out := make([]string, 0, len(scope))
	for _, line := range scope {
		line = capitalize(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		out = append(out, "Customer notes: "+capitalize(notes))
	}

	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
