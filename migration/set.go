package migration

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned by NewSet when the given migrations
// can not form a valid set
type ConfigurationError struct {
	Duplicates []string
	Invalid    []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("migrations named %s are non-unique", strings.Join(e.Duplicates, ", ")))
	}

	parts = append(parts, e.Invalid...)

	return "invalid migration set: " + strings.Join(parts, "; ")
}

// Set is an ordered collection of migrations with unique names.
// A Set is never mutated after construction and is safe to share.
type Set struct {
	migrations []Migration
}

// NewSet validates the migrations and keeps them in the given order
func NewSet(migrations ...Migration) (*Set, error) {
	var cfgErr ConfigurationError

	seen := make(map[string]int, len(migrations))
	for i, m := range migrations {
		if m == nil {
			cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("migration at position %d is nil", i))
			continue
		}

		name := m.Name()
		if name == "" {
			cfgErr.Invalid = append(cfgErr.Invalid, fmt.Sprintf("migration at position %d has an empty name", i))
			continue
		}

		seen[name]++
		if seen[name] == 2 {
			cfgErr.Duplicates = append(cfgErr.Duplicates, name)
		}
	}

	if len(cfgErr.Duplicates) > 0 || len(cfgErr.Invalid) > 0 {
		return nil, &cfgErr
	}

	return &Set{migrations: append([]Migration(nil), migrations...)}, nil
}

func (s *Set) Len() int {
	return len(s.migrations)
}

func (s *Set) At(i int) Migration {
	return s.migrations[i]
}

func (s *Set) Names() []string {
	names := make([]string, len(s.migrations))
	for i := range s.migrations {
		names[i] = s.migrations[i].Name()
	}

	return names
}

// Migrations returns a copy of the ordered migrations
func (s *Set) Migrations() []Migration {
	return append([]Migration(nil), s.migrations...)
}

// Suffix returns the migrations starting at position n
func (s *Set) Suffix(n int) []Migration {
	if n < 0 {
		n = 0
	}

	if n >= len(s.migrations) {
		return nil
	}

	return append([]Migration(nil), s.migrations[n:]...)
}
