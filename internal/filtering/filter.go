package filtering

import (
	"context"

	"github.com/stacklok/marketplace-hub/internal/config"
	"github.com/stacklok/marketplace-hub/internal/logging"
	"github.com/stacklok/marketplace-hub/internal/registry"
)

// Filter narrows a registry by id and tag
type Filter struct {
	ids  *idFilter
	tags *tagFilter
}

var _ registry.Filter = (*Filter)(nil)

// New compiles cfg. A nil cfg yields a filter that keeps every marketplace.
func New(cfg *config.FilterConfig) (*Filter, error) {
	var names *config.NameFilterConfig
	var tags *config.TagFilterConfig
	if cfg != nil {
		names, tags = cfg.Names, cfg.Tags
	}

	ids, err := newIDFilter(names)
	if err != nil {
		return nil, err
	}
	return &Filter{ids: ids, tags: newTagFilter(tags)}, nil
}

// Include reports whether entry passes both the id and the tag filter, with
// the reason for the decision
func (f *Filter) Include(entry registry.Entry) (bool, string) {
	if ok, reason := f.ids.decide(entry.ID); !ok {
		return false, "id filter: " + reason
	}
	if ok, reason := f.tags.decide(entry.Tags); !ok {
		return false, "tag filter: " + reason
	}
	return true, "passed"
}

// Apply returns a copy of hub holding the marketplaces that pass, in registry
// order. Without any id or tag rules hub is returned as is.
func (f *Filter) Apply(ctx context.Context, hub *registry.Hub) (*registry.Hub, error) {
	if hub == nil || (!f.ids.active() && !f.tags.active()) {
		return hub, nil
	}
	log := logging.FromContext(ctx)

	filtered := &registry.Hub{
		Metadata:     hub.Metadata,
		Marketplaces: make([]registry.Entry, 0, len(hub.Marketplaces)),
	}
	for _, entry := range hub.Marketplaces {
		included, reason := f.Include(entry)
		log.V(1).Info("Registry filter decision", "id", entry.ID, "included", included, "reason", reason)
		if included {
			filtered.Marketplaces = append(filtered.Marketplaces, entry)
		}
	}

	log.Info("Registry filtered", "original", hub.Len(), "included", filtered.Len())
	return filtered, nil
}
