// Package auto provides flag values that accept human-friendly sizes.
package auto

import (
	"fmt"

	"github.com/alecthomas/units"
)

// Bytes is a flag value holding a byte count written like "100MB" or
// "512KiB".  Units are powers of two.
type Bytes struct {
	Bytes uint64
}

func NewBytes(b uint64) Bytes {
	return Bytes{b}
}

func (b Bytes) String() string {
	return units.Base2Bytes(b.Bytes).String()
}

func (b *Bytes) Set(s string) error {
	n, err := units.ParseBase2Bytes(s)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative size %q", s)
	}
	b.Bytes = uint64(n)
	return nil
}

func (*Bytes) Type() string {
	return "bytes"
}
