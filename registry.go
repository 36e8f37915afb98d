package logfactory

import (
	stderrs "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Registry maps transport names to transport types and their default options.
// Lookups read an immutable snapshot; Register publishes a new one.
type Registry struct {
	mu       sync.Mutex
	state    atomic.Pointer[registryState]
	builtins typeSet
	diag     zerolog.Logger
	metrics  *Metrics
}

type RegistryOption func(*Registry)

// WithDiagnostics sets the logger that receives the registry's own warnings.
func WithDiagnostics(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.diag = l }
}

func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry returns an empty registry that falls back to the built-in
// Console, File and Memory transports.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		builtins: newTypeSet(Console, File, Memory),
		diag:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Store(&registryState{
		types:    map[string]*TransportType{},
		defaults: map[string]Options{},
	})
	return r
}

func newTypeSet(types ...*TransportType) typeSet {
	set := typeSet{types: make(map[string]*TransportType, len(types))}
	for _, t := range types {
		set.types[t.Name] = t
		set.names = append(set.names, t.Name)
	}
	sort.Strings(set.names)
	return set
}

func (r *Registry) snapshot() *registryState {
	return r.state.Load()
}

// Register stores t under t.Name together with its default options, replacing
// any earlier registration under that exact name.
func (r *Registry) Register(t *TransportType, defaults Options) error {
	if t == nil || t.Name == emptyString || t.New == nil {
		return ErrInvalidTransportType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snapshot()
	next := &registryState{
		types:    make(map[string]*TransportType, len(old.types)+1),
		defaults: make(map[string]Options, len(old.defaults)+1),
	}
	for name, typ := range old.types {
		next.types[name] = typ
	}
	for name, opts := range old.defaults {
		next.defaults[name] = opts
	}
	next.types[t.Name] = t
	next.defaults[t.Name] = defaults.Clone()
	for name := range next.types {
		next.names = append(next.names, name)
	}
	sort.Strings(next.names)

	r.state.Store(next)
	return nil
}

// Get resolves name to a transport type. Registered names win over built-in
// ones; see resolutionOrder for the tiers.
func (r *Registry) Get(name string) (*TransportType, error) {
	return r.lookup(r.snapshot(), name)
}

func (r *Registry) lookup(s *registryState, name string) (*TransportType, error) {
	t := resolve(name, typeSet{types: s.types, names: s.names}, r.builtins)
	if t == nil {
		return nil, fmt.Errorf("%w: no transport named `%s` exists (did you register it?)", ErrNotSupported, name)
	}
	return t, nil
}

// Build resolves name and constructs a transport from opts merged over the
// defaults registered for the resolved type. opts may be nil; it is not modified.
func (r *Registry) Build(name string, opts Options) (Transport, error) {
	const op errors.Op = "logfactory.Registry.Build"

	s := r.snapshot()
	t, err := r.lookup(s, name)
	if err != nil {
		r.metrics.transportFailed(unresolvedTransport)
		return nil, err
	}

	tr, err := t.New(mergeOptions(s.defaults[t.Name], opts))
	if err != nil {
		r.metrics.transportFailed(t.Name)
		return nil, errors.New(op).Err(err).Msg("Transport " + t.Name + " could not be built.")
	}

	r.metrics.transportBuilt(t.Name)
	return tr, nil
}

// BuildAll builds one transport per entry of cfg, keyed like cfg, after
// stamping label onto every entry. The merge directive entry is skipped.
// Entries that fail are logged and left out of the result; the returned
// error joins their failures. cfg is not modified.
func (r *Registry) BuildAll(cfg TransportConfig, label string) (map[string]Transport, error) {
	work := cfg.Clone()
	stampLabel(work, label)

	names := make([]string, 0, len(work))
	for name := range work {
		if name == MergeKey {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	built := make(map[string]Transport, len(names))
	var errs []error
	for _, name := range names {
		tr, err := r.Build(name, work[name])
		if err != nil {
			r.diag.Warn().Err(err).Str("transport", name).Msg("skipping transport")
			errs = append(errs, err)
			continue
		}
		built[name] = tr
	}
	return built, stderrs.Join(errs...)
}

// Defaults returns a copy of the default options registered for the type name resolves to.
func (r *Registry) Defaults(name string) Options {
	s := r.snapshot()
	t, err := r.lookup(s, name)
	if err != nil {
		return nil
	}
	return s.defaults[t.Name].Clone()
}

// Registered returns the registered names in sorted order.
func (r *Registry) Registered() []string {
	s := r.snapshot()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Builtins returns the names of the built-in transports in sorted order.
func (r *Registry) Builtins() []string {
	out := make([]string, len(r.builtins.names))
	copy(out, r.builtins.names)
	return out
}
