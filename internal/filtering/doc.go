// Package filtering narrows the marketplace registry before it is served.
//
// Marketplaces are selected by id with glob patterns and by tag with
// case-insensitive exact matches. For both, an exclude match always wins; when
// include entries are configured, a marketplace must match one of them. A
// marketplace must pass both the id and the tag filter.
//
//	f, err := filtering.New(&config.FilterConfig{
//		Names: &config.NameFilterConfig{Exclude: []string{"*-experimental"}},
//		Tags:  &config.TagFilterConfig{Include: []string{"lint", "testing"}},
//	})
//	filtered, err := f.Apply(ctx, hub)
package filtering
