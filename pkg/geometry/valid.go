package geometry

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
)

// Validity errors returned by Validate.
var (
	ErrEmpty   = errors.New("polygon has no rings")
	ErrInvalid = errors.New("invalid polygon")
)

// Validate checks that p is a valid simple polygon in the OGC sense: rings
// are closed, simple and finite, rings meet at most at single points, holes
// lie inside the shell, and the interior is connected.
func Validate(p geom.Polygon) error {
	if len(p) == 0 || len(p[0]) == 0 {
		return ErrEmpty
	}
	if err := toSimple(p).Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
