// Package names generates the names of the jobs created for a TES task.
package names

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	// DefaultPrefix is the prefix of generated task names.
	DefaultPrefix = "task"
	// randomLength is the number of random hex characters appended to the prefix.
	randomLength = 8
)

// Generator generates a unique name for each task run.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

// UUIDGenerator generates names of the form ${Prefix}-${8 hex characters} from random UUIDs.
type UUIDGenerator struct {
	Prefix string
}

// NewUUIDGenerator returns a generator using DefaultPrefix.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{Prefix: DefaultPrefix}
}

// Generate returns a new name.
func (g *UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrapf(err, "Failed to generate a random UUID")
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:randomLength]
	prefix := g.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "-" + suffix, nil
}

// FuncGenerator adapts a function to the Generator interface.
type FuncGenerator func() (string, error)

// Generate calls f.
func (f FuncGenerator) Generate() (string, error) {
	return f()
}

// Validate checks that name can be used as the name of a job and as a label value.
func Validate(name string) error {
	if msgs := validation.IsDNS1123Label(name); len(msgs) > 0 {
		return errors.Errorf("%q isn't a valid DNS-1123 label: %v", name, strings.Join(msgs, "; "))
	}
	return nil
}
