package data

import (
	"strings"

	"github.com/pkg/errors"
)

// Flag is the bit-set of schema-declared behavior flags.
//
// Flags steer downstream collaborators (persistence, replication); the kernel
// stores them and exposes them atomically with values but never interprets
// them.
type Flag int

const (
	// FlagSave marks data as eligible for persistence
	FlagSave Flag = 1 << iota
	// FlagPublic marks data as replicated to observers outside the owning process
	FlagPublic
	// FlagPrivate marks data as never leaving the owning process
	FlagPrivate
	// FlagCache marks data as lazily loadable/evictable by the persistence layer
	FlagCache
	// FlagUpload marks data as eligible for client-originated writes
	FlagUpload
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagSave, "save"},
	{FlagPublic, "public"},
	{FlagPrivate, "private"},
	{FlagCache, "cache"},
	{FlagUpload, "upload"},
}

// Has checks if all bits of o are set in f
func (f Flag) Has(o Flag) bool {
	return f&o == o
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	parts := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts flag definition strings ("save", "public", ...) to a
// Flag bit-set. Unknown definitions are schema errors.
func ParseFlags(defs ...string) (Flag, error) {
	var f Flag
	for _, def := range defs {
		matched := false
		lower := strings.ToLower(def)
		for _, fn := range flagNames {
			if lower == fn.name {
				f |= fn.flag
				matched = true
				break
			}
		}
		if !matched {
			return 0, errors.Errorf("unknown flag definition: %s", def)
		}
	}
	return f, nil
}
