package dispatch

import (
	"errors"
	"fmt"
	"sort"
)

// Table is an immutable set of named methods. Lookups need no locking.
type Table struct {
	methods map[string]*entry
	names   []string
}

type entry struct {
	*method
	wrapped Handler
}

// Option configures a Table under construction. Method constructors return
// Options as well.
type Option func(*tableBuilder)

type tableBuilder struct {
	methods    map[string]*method
	middleware []Middleware
	errors     []error
}

// WithMiddleware wraps every handler. The first middleware given is the
// outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *tableBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// NewTable builds a Table. Empty or duplicate method names are errors.
func NewTable(opts ...Option) (*Table, error) {
	b := &tableBuilder{methods: make(map[string]*method)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, errors.Join(b.errors...)
	}

	t := &Table{
		methods: make(map[string]*entry, len(b.methods)),
		names:   make([]string, 0, len(b.methods)),
	}
	for name, m := range b.methods {
		wrapped := m.handler
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		t.methods[name] = &entry{method: m, wrapped: wrapped}
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t, nil
}

// MustNewTable is NewTable for package-level declarations. It panics on a
// build error.
func MustNewTable(opts ...Option) *Table {
	t, err := NewTable(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Has reports whether name is a method of the table.
func (t *Table) Has(name string) bool {
	_, ok := t.methods[name]
	return ok
}

// Names returns the method names in sorted order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (b *tableBuilder) addMethod(m *method) error {
	if m.name == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if m.handler == nil {
		return fmt.Errorf("method %q has no handler", m.name)
	}
	if _, exists := b.methods[m.name]; exists {
		return fmt.Errorf("duplicate method name: %q", m.name)
	}
	b.methods[m.name] = m
	return nil
}
