package filtering

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/stacklok/marketplace-hub/internal/config"
)

// pattern is a compiled glob together with its source text
type pattern struct {
	src string
	g   glob.Glob
}

func compilePatterns(kind string, sources []string) ([]pattern, error) {
	out := make([]pattern, 0, len(sources))
	for _, src := range sources {
		g, err := glob.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", kind, src, err)
		}
		out = append(out, pattern{src: src, g: g})
	}
	return out, nil
}

// idFilter selects marketplaces by id. Patterns use gobwas/glob syntax with no
// separators, so '*' matches any run of characters.
type idFilter struct {
	include []pattern
	exclude []pattern
}

func newIDFilter(cfg *config.NameFilterConfig) (*idFilter, error) {
	f := &idFilter{}
	if cfg == nil {
		return f, nil
	}
	var err error
	if f.include, err = compilePatterns("include", cfg.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns("exclude", cfg.Exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *idFilter) active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// decide applies exclude patterns first, then include patterns
func (f *idFilter) decide(id string) (bool, string) {
	for _, p := range f.exclude {
		if p.g.Match(id) {
			return false, fmt.Sprintf("excluded by pattern '%s'", p.src)
		}
	}
	if len(f.include) == 0 {
		return true, "not excluded"
	}
	for _, p := range f.include {
		if p.g.Match(id) {
			return true, fmt.Sprintf("included by pattern '%s'", p.src)
		}
	}
	return false, "no include pattern matched"
}
