package packgroup

import (
	"context"
	"strings"

	"github.com/smap/smap/internal/smaperr"
)

// rebuildResolution walks override -> enabled packs in order, claiming each
// pack's logical paths on a first-writer-wins basis, and replaces the
// group's resolution map. Called from Load only when the group is dirty.
func (g *Group) rebuildResolution(ctx context.Context) error {
	resolution := make(map[string]string)

	order := make([]string, 0, len(g.enabled)+1)
	if g.override != nil {
		order = append(order, overrideKey)
	}
	order = append(order, g.enabled...)

	for _, key := range order {
		h, err := g.handleFor(key)
		if err != nil {
			return err
		}
		reader, err := h.open(ctx, g.verifyConcurrency)
		if err != nil {
			return err
		}
		for _, p := range reader.Paths() {
			if _, claimed := resolution[p]; !claimed {
				resolution[p] = key
			}
		}
	}

	g.resolution = resolution
	return nil
}

// handleFor maps a resolution-map key (a discovered path, a built-in
// synthetic path, or overrideKey) back to its packHandle.
func (g *Group) handleFor(key string) (*packHandle, error) {
	switch {
	case key == overrideKey:
		if g.override == nil {
			return nil, &smaperr.FileNotFound{Path: key}
		}
		return g.override, nil
	case strings.HasPrefix(key, BuiltInPrefix):
		h, ok := g.builtIn[strings.TrimPrefix(key, BuiltInPrefix)]
		if !ok {
			return nil, &smaperr.FileNotFound{Path: key}
		}
		return h, nil
	default:
		h, ok := g.available[key]
		if !ok {
			return nil, &smaperr.FileNotFound{Path: key}
		}
		return h, nil
	}
}
