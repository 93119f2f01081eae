package evo

import (
	"context"
	"fmt"
	"log/slog"

	"evoselect/internal/model"
	"evoselect/internal/phase"
	"evoselect/internal/selection"
)

type ParentSelectorConfig struct {
	Selector  selection.Selector
	Collector phase.Collector
	Logger    *slog.Logger
}

// ParentSelector is the driver step that runs a selector over a generation
// and reports the chosen parents at phase.SelectedParents.
type ParentSelector struct {
	cfg ParentSelectorConfig
}

func NewParentSelector(cfg ParentSelectorConfig) (*ParentSelector, error) {
	if cfg.Selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ParentSelector{cfg: cfg}, nil
}

// SelectParents selects number parents from generation. The collector is only
// notified when selection succeeds. With elitism enabled the result may hold
// number+1 parents.
func (p *ParentSelector) SelectParents(ctx context.Context, number int, generation *model.Generation) ([]*model.Chromosome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parents, err := p.cfg.Selector.Select(number, generation)
	if err != nil {
		p.cfg.Logger.Warn("parent selection failed",
			"selector", p.cfg.Selector.Name(),
			"number", number,
			"error", err,
		)
		return nil, err
	}

	p.cfg.Logger.Debug("parents selected",
		"selector", p.cfg.Selector.Name(),
		"generation", generation.Number,
		"requested", number,
		"selected", len(parents),
	)
	if p.cfg.Collector != nil {
		p.cfg.Collector.NoteChromosomesAtPhase(phase.SelectedParents, parents)
	}
	return parents, nil
}
