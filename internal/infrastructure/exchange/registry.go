package exchange

import (
	"sort"

	"github.com/rs/zerolog/log"

	"marketdash/internal/application/port"
	"marketdash/internal/infrastructure/transport"
)

// Endpoints carries the per-venue base URLs a factory may need. FuturesURL is
// empty for venues without a derivatives API.
type Endpoints struct {
	RestURL    string
	FuturesURL string
}

// Factory builds a venue source over the shared fetcher chain.
type Factory func(ep Endpoints, f *transport.Fetcher) port.Source

// registry maps venue names to their source factories. Venue packages
// self-register from init().
var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", name).Msg("invalid source factory")
		return
	}
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("source factory already registered, overwriting")
	}
	registry[name] = factory
	log.Debug().Str("exchange", name).Msg("source factory registered")
}

func Get(name string) (Factory, bool) {
	factory, ok := registry[name]
	return factory, ok
}

// Names lists registered venues, sorted for stable iteration.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
