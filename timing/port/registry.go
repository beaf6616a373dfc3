package port

import "fmt"

type registryEntry struct {
	typeName     string
	core         any
	writerClaimed bool
	readerClaimed bool
}

// Registry owns every port declared by a single simulator instance. Ports
// are declared with Declare, claimed by exactly one WriterOf and one
// ReaderOf call, then locked with Freeze before the driver starts ticking
// stages. This replaces the original source's process-wide port registry
// (Design Note 9) with an instance the simulator itself owns and tears down.
type Registry struct {
	entries map[string]*registryEntry
	frozen  bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Declare registers a named port of element type T with the given latency
// (cycles before a write becomes readable) and bandwidth (writes per cycle).
func Declare[T any](r *Registry, name string, latency uint64, bandwidth int) error {
	if r.frozen {
		return fmt.Errorf("port registry: cannot declare %q after Freeze", name)
	}

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("port registry: duplicate port name %q", name)
	}

	core := &portCore[T]{name: name, latency: latency, bandwidth: bandwidth}
	r.entries[name] = &registryEntry{typeName: typeNameOf[T](), core: core}

	return nil
}

// WriterOf claims the write end of a previously declared port by name.
func WriterOf[T any](r *Registry, name string) (WritePort[T], error) {
	e, err := lookup[T](r, name)
	if err != nil {
		return WritePort[T]{}, err
	}

	if e.writerClaimed {
		return WritePort[T]{}, fmt.Errorf("port registry: %q already has a writer", name)
	}
	e.writerClaimed = true

	return WritePort[T]{core: e.core.(*portCore[T])}, nil
}

// ReaderOf claims the read end of a previously declared port by name.
func ReaderOf[T any](r *Registry, name string) (ReadPort[T], error) {
	e, err := lookup[T](r, name)
	if err != nil {
		return ReadPort[T]{}, err
	}

	if e.readerClaimed {
		return ReadPort[T]{}, fmt.Errorf("port registry: %q already has a reader", name)
	}
	e.readerClaimed = true

	return ReadPort[T]{core: e.core.(*portCore[T])}, nil
}

// Freeze validates that every declared port has exactly one writer and one
// reader, then locks the registry against further declarations. It is the
// explicit initialisation step spec §4.1 requires before any stage clocks.
func (r *Registry) Freeze() error {
	for name, e := range r.entries {
		switch {
		case !e.writerClaimed && !e.readerClaimed:
			return fmt.Errorf("port registry: %q is dangling (no writer, no reader)", name)
		case !e.writerClaimed:
			return fmt.Errorf("port registry: %q has a reader but no writer", name)
		case !e.readerClaimed:
			return fmt.Errorf("port registry: %q has a writer but no reader", name)
		}
	}

	r.frozen = true

	return nil
}

func lookup[T any](r *Registry, name string) (*registryEntry, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("port registry: %q was never declared", name)
	}

	if _, ok := e.core.(*portCore[T]); !ok {
		return nil, fmt.Errorf("port registry: %q declared as %s, requested as %s", name, e.typeName, typeNameOf[T]())
	}

	return e, nil
}

func typeNameOf[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
