package flows

import (
	"context"
	"errors"
	"sort"
)

// LayeredStore serves a category from the first layer that has it, overrides
// before the writable base. Writes always go to the base.
type LayeredStore struct {
	base      Store
	overrides []Source
}

var _ Store = (*LayeredStore)(nil)

// NewLayeredStore stacks overrides (highest priority first) over base.
func NewLayeredStore(base Store, overrides ...Source) *LayeredStore {
	return &LayeredStore{base: base, overrides: overrides}
}

func (s *LayeredStore) GetFlow(ctx context.Context, category string) (*Flow, error) {
	for _, o := range s.overrides {
		f, err := o.GetFlow(ctx, category)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrFlowNotFound) {
			return nil, err
		}
	}
	return s.base.GetFlow(ctx, category)
}

// ListFlows merges all layers; an override hides the base flow of the same category.
func (s *LayeredStore) ListFlows(ctx context.Context) ([]*Flow, error) {
	merged := make(map[string]*Flow)

	base, err := s.base.ListFlows(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range base {
		merged[f.Category] = f
	}

	for i := len(s.overrides) - 1; i >= 0; i-- {
		lister, ok := s.overrides[i].(Store)
		if !ok {
			continue
		}
		flows, err := lister.ListFlows(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range flows {
			merged[f.Category] = f
		}
	}

	result := make([]*Flow, 0, len(merged))
	for _, f := range merged {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

func (s *LayeredStore) SaveFlow(ctx context.Context, flow *Flow) error {
	return s.base.SaveFlow(ctx, flow)
}

func (s *LayeredStore) DeleteFlow(ctx context.Context, category string) error {
	return s.base.DeleteFlow(ctx, category)
}
