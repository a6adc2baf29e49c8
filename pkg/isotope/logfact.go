package isotope

import (
	"math"
	"sync"
)

// maxLogFactorials caps the table. Larger arguments are computed with
// math.Lgamma, so one huge atom count cannot pin memory or hold the lock.
const maxLogFactorials = 1 << 20

// LogFactorials is an append-only table of log(n!) that grows on demand up
// to maxLogFactorials entries. It is safe for concurrent use and may be
// shared between calculators.
type LogFactorials struct {
	mu     sync.RWMutex
	values []float64
}

// NewLogFactorials creates a table, optionally precomputed up to size.
func NewLogFactorials(size int) *LogFactorials {
	lf := &LogFactorials{values: []float64{0}}
	if size > 0 {
		lf.grow(size)
	}
	return lf
}

// defaultLogFactorials backs NewCalculator when no table is supplied.
var defaultLogFactorials = NewLogFactorials(1024)

// At returns log(n!) for n >= 0.
func (lf *LogFactorials) At(n int) float64 {
	if n >= maxLogFactorials {
		return lgammaFactorial(n)
	}

	lf.mu.RLock()
	if n < len(lf.values) {
		v := lf.values[n]
		lf.mu.RUnlock()
		return v
	}
	lf.mu.RUnlock()

	lf.grow(n)

	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return lf.values[n]
}

// upTo returns a read-only view of log(0!)..log(min(n, cap)!). The view is
// shorter than n+1 when n is past the cap. Entries are never rewritten, so
// the view stays valid after later growth.
func (lf *LogFactorials) upTo(n int) []float64 {
	n = min(n, maxLogFactorials-1)
	lf.At(n)

	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return lf.values[:n+1]
}

// Len returns the number of entries computed so far.
func (lf *LogFactorials) Len() int {
	lf.mu.RLock()
	defer lf.mu.RUnlock()
	return len(lf.values)
}

func (lf *LogFactorials) grow(n int) {
	n = min(n, maxLogFactorials-1)

	lf.mu.Lock()
	defer lf.mu.Unlock()
	for i := len(lf.values); i <= n; i++ {
		lf.values = append(lf.values, lf.values[i-1]+math.Log(float64(i)))
	}
}

func lgammaFactorial(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}
