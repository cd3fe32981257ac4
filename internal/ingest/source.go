package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// OddsSource supplies one source's current outcome records for a detection
// cycle. Implementations must be safe for concurrent FetchOdds calls and must
// honor ctx cancellation.
type OddsSource interface {
	Name() string
	FetchOdds(ctx context.Context) ([]models.OutcomeRecord, error)
}

// Registry is the fixed set of odds sources, built once at startup from
// configuration. There is no import-time self-registration; sources are
// added explicitly and iterated in name order so that registration order
// cannot affect detection results.
type Registry struct {
	byName map[string]OddsSource
}

// NewRegistry creates an empty source registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]OddsSource)}
}

// Register adds a source, rejecting duplicate names
func (r *Registry) Register(src OddsSource) error {
	name := src.Name()
	if name == "" {
		return fmt.Errorf("source has an empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	r.byName[name] = src
	return nil
}

// Sources returns all registered sources in name order
func (r *Registry) Sources() []OddsSource {
	names := r.Names()
	sources := make([]OddsSource, len(names))
	for i, name := range names {
		sources[i] = r.byName[name]
	}
	return sources
}

// Names returns the registered source names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered sources
func (r *Registry) Len() int {
	return len(r.byName)
}
