package comparator

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
)

// Builder collects comparators before the registry is frozen. It is not safe
// for concurrent use.
type Builder struct {
	comparators map[ID]Comparator
	logger      *slog.Logger
}

// NewBuilder creates an empty builder. A nil logger uses slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		comparators: make(map[ID]Comparator),
		logger:      logger,
	}
}

// Register adds c. Registering an ID twice fails and leaves the first
// registration in place.
func (b *Builder) Register(c Comparator) error {
	if c == nil {
		return &RegistryError{Operation: "register", Cause: fmt.Errorf("comparator cannot be nil")}
	}
	id := c.ID()
	if !id.Valid() {
		return &RegistryError{Operation: "register", ID: id, Cause: ErrUnknownComparatorID}
	}
	if _, exists := b.comparators[id]; exists {
		return &RegistryError{Operation: "register", ID: id, Cause: ErrDuplicateComparator}
	}
	b.comparators[id] = c
	return nil
}

// Build freezes the builder's contents into a Registry and logs the
// registered identifiers. The builder may keep being used; later
// registrations do not affect registries already built.
func (b *Builder) Build() *Registry {
	r := &Registry{comparators: make(map[ID]Comparator, len(b.comparators))}
	for id, c := range b.comparators {
		r.comparators[id] = c
	}
	r.ids = make([]ID, 0, len(r.comparators))
	for id := range r.comparators {
		r.ids = append(r.ids, id)
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })
	r.fingerprint = fingerprint(r)

	names := make([]string, len(r.ids))
	for i, id := range r.ids {
		names[i] = string(id)
	}
	b.logger.Info("comparator registry built",
		"count", len(r.ids),
		"comparators", names,
		"fingerprint", r.fingerprint,
	)
	return r
}

// Registry is an immutable index of comparators by ID.
type Registry struct {
	comparators map[ID]Comparator
	ids         []ID
	fingerprint string
}

// Get returns the comparator registered under id.
func (r *Registry) Get(id ID) (Comparator, error) {
	c, ok := r.comparators[id]
	if !ok {
		return nil, &RegistryError{Operation: "get", ID: id, Cause: ErrComparatorNotFound}
	}
	return c, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.comparators[id]
	return ok
}

// List returns the registered identifiers, sorted.
func (r *Registry) List() []ID {
	ids := make([]ID, len(r.ids))
	copy(ids, r.ids)
	return ids
}

// Len returns the number of registered comparators.
func (r *Registry) Len() int {
	return len(r.ids)
}

// Describe returns a descriptor per registered comparator, sorted by ID.
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, Describe(r.comparators[id]))
	}
	return out
}

// Resolve checks that every id is registered. All missing identifiers are
// reported together, deduplicated, in first-seen order.
func (r *Registry) Resolve(ids []ID) error {
	var missing []ID
	seen := make(map[ID]struct{})
	for _, id := range ids {
		if r.Has(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		return &UnresolvedComparatorsError{IDs: missing}
	}
	return nil
}

// Fingerprint identifies the registered set of comparators and their
// versions. Reports carry it so a verdict can be traced to the catalog that
// produced it.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

func fingerprint(r *Registry) string {
	h := sha256.New()
	for _, id := range r.ids {
		fmt.Fprintf(h, "%s@%s\n", id, r.comparators[id].Version())
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
