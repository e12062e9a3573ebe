package reform

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hydroreg/water-licensing-backend/internal/clients/water"
	pkgerrors "github.com/hydroreg/water-licensing-backend/internal/pkg/errors"
)

// Resolver dereferences the custom water://{host}/{ref}.json scheme inside
// WR22 schemas. The host selects the resolution strategy:
//
//	types     - static bundled fragments
//	picklists - backend picklist converted to an enum schema
//	licences  - the current licence's conditions or points as {id, value}
//
// Resolution happens once per form build, at request time. Any backend
// failure propagates to the caller; the request fails rather than render a
// form with missing choices.
type Resolver struct {
	registry *Registry
	water    *water.Client
}

func NewResolver(registry *Registry, waterClient *water.Client) *Resolver {
	return &Resolver{registry: registry, water: waterClient}
}

// Dereference returns a copy of doc with every water:// $ref replaced by its
// resolved schema. Sibling annotation keys on the ref node (label,
// fieldType, defaultEmpty) survive onto the resolved fragment.
func (r *Resolver) Dereference(ctx context.Context, doc map[string]any, licenceRef string) (map[string]any, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if ref, ok := out["$ref"].(string); ok && strings.HasPrefix(ref, "water://") {
		resolved, err := r.resolve(ctx, ref, licenceRef)
		if err != nil {
			return nil, err
		}
		delete(out, "$ref")
		for k, v := range resolved {
			if _, keep := out[k]; !keep {
				out[k] = v
			}
		}
		return out, nil
	}

	if props, ok := out["properties"].(map[string]any); ok {
		newProps := make(map[string]any, len(props))
		for name, raw := range props {
			child, ok := raw.(map[string]any)
			if !ok {
				newProps[name] = raw
				continue
			}
			resolved, err := r.Dereference(ctx, child, licenceRef)
			if err != nil {
				return nil, err
			}
			newProps[name] = resolved
		}
		out["properties"] = newProps
	}
	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, ref, licenceRef string) (map[string]any, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("ref %q: %w", ref, err)
	}
	name := strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".json")

	switch u.Host {
	case "types":
		return r.registry.TypeFragment(name)

	case "picklists":
		def, err := r.water.Picklists.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		items, err := r.water.Picklists.Items(ctx, name)
		if err != nil {
			return nil, err
		}
		return PicklistSchema(*def, items), nil

	case "licences":
		return r.resolveLicence(ctx, name, licenceRef)

	default:
		return nil, fmt.Errorf("ref %q host %q: %w", ref, u.Host, pkgerrors.ErrUnknownResolver)
	}
}

func (r *Resolver) resolveLicence(ctx context.Context, name, licenceRef string) (map[string]any, error) {
	var (
		options []water.Option
		err     error
	)
	switch name {
	case "conditions":
		options, err = r.water.Licences.Conditions(ctx, licenceRef)
	case "points":
		options, err = r.water.Licences.Points(ctx, licenceRef)
	default:
		return nil, fmt.Errorf("licence ref %q: %w", name, pkgerrors.ErrUnknownResolver)
	}
	if err != nil {
		return nil, err
	}
	enum := make([]any, 0, len(options))
	for _, opt := range options {
		enum = append(enum, map[string]any{"id": opt.ID, "value": opt.Value})
	}
	return map[string]any{"type": "object", "enum": enum}, nil
}
