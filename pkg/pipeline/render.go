package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/depmanifest/pkg/render"
)

// GraphOptions configures [Render].
type GraphOptions struct {
	Format   string // dot, svg or png
	Detailed bool   // include roles in node labels
}

// Render draws a resolution result as a node-link graph.
func Render(ctx context.Context, result *Result, opts GraphOptions) ([]byte, error) {
	if opts.Format == "" {
		opts.Format = render.FormatSVG
	}
	if err := render.ValidateFormat(opts.Format); err != nil {
		return nil, err
	}

	in := render.Input{
		Project:      result.Project,
		Platform:     result.Platform.String(),
		Dependencies: result.Dependencies,
	}

	data, err := render.Render(ctx, render.ToDOT(in, render.Options{Detailed: opts.Detailed}), opts.Format)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}
