// Package caseid issues public tracking codes for reports.
package caseid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// suffixSpace is one million codes per year, so duplicates are possible
// under load. Callers must treat a unique-key violation on insert as a
// signal to call New again.
const suffixSpace = 1_000_000

// Generator produces tracking codes of the form REP<year><6 digits>.
type Generator interface {
	New() string
}

type generator struct {
	now func() time.Time
}

func NewGenerator() Generator {
	return &generator{now: time.Now}
}

func (g *generator) New() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	n := binary.BigEndian.Uint64(b[:]) % suffixSpace
	return fmt.Sprintf("REP%d%06d", g.now().Year(), n)
}
