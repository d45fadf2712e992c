package pipewire

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/micro-nova/pwsink-go/internal/models"
)

// Catalog reads sinks from the audio server. Nothing is cached: every call
// re-dumps the graph.
type Catalog struct {
	backend Backend
	log     *slog.Logger
}

// NewCatalog returns a catalog reading from backend.
func NewCatalog(backend Backend, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{backend: backend, log: log}
}

// ListSinks returns all Audio/Sink nodes in graph order. At most one of them
// has Default set.
func (c *Catalog) ListSinks(ctx context.Context) ([]models.Sink, error) {
	data, err := c.backend.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump audio graph: %w", err)
	}
	g, err := ParseDump(data)
	if err != nil {
		return nil, err
	}

	if g.DefaultSinkName == "" {
		c.log.Info("pipewire: no default sink recorded")
	} else {
		c.log.Info("pipewire: current default sink", "node", g.DefaultSinkName)
	}
	if c.log.Enabled(ctx, slog.LevelDebug) {
		c.log.Debug("pipewire: known sinks", "sinks", g.Sinks)
	}
	return g.Sinks, nil
}

// Default returns the current default sink, or nil when none is configured.
func (c *Catalog) Default(ctx context.Context) (*models.Sink, error) {
	sinks, err := c.ListSinks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sinks {
		if sinks[i].Default {
			return &sinks[i], nil
		}
	}
	return nil, nil
}

// SetDefault makes sink id the default output.
func (c *Catalog) SetDefault(ctx context.Context, id int) error {
	c.log.Debug("pipewire: setting default sink", "id", id)
	if err := c.backend.SetDefault(ctx, id); err != nil {
		return fmt.Errorf("set default sink %d: %w", id, err)
	}
	return nil
}

// Match returns the first sink whose id equals label or whose name contains it.
func Match(sinks []models.Sink, label string) (models.Sink, bool) {
	if label == "" {
		return models.Sink{}, false
	}
	for _, s := range sinks {
		if label == strconv.Itoa(s.ID) || strings.Contains(s.Name, label) {
			return s, true
		}
	}
	return models.Sink{}, false
}
