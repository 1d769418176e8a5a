// Package systems provides the numerical systems of the simulation:
// substrate generation, the sensing kernel, the guidance potential,
// adaptation and move acceptance.
package systems

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/retinotectal/config"
)

// ErrOutOfBounds reports a sensing window that leaves the padded substrate.
// It indicates a radius/offset misconfiguration and aborts the run.
var ErrOutOfBounds = errors.New("sensing window out of bounds")

// Kernel is a circularly symmetric sensing footprint with a hard cutoff.
// It is read-only once built and may be shared between goroutines.
type Kernel struct {
	Radius    int
	Decay     float64
	Threshold float64
	Weights   *mat.Dense // (2r+1)x(2r+1)
	Sum       float64

	// corr[(dy+2r)*(4r+1)+(dx+2r)] is the kernel autocorrelation at (dx,dy).
	corr []float64
}

// BuildKernel computes the kernel for the given decay and cutoff threshold.
func BuildKernel(decay, threshold float64) (*Kernel, error) {
	if decay <= 0 {
		return nil, fmt.Errorf("%w: kernel decay must be positive, got %g", config.ErrConfiguration, decay)
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("%w: kernel threshold must be in (0,1), got %g", config.ErrConfiguration, threshold)
	}

	r := int(math.Ceil(math.Sqrt(-math.Log(threshold) / decay)))
	size := 2*r + 1
	w := mat.NewDense(size, size, nil)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			v := math.Exp(-decay * float64(dx*dx+dy*dy))
			if v < threshold {
				v = 0
			}
			w.Set(dy+r, dx+r, v)
		}
	}

	k := &Kernel{
		Radius:    r,
		Decay:     decay,
		Threshold: threshold,
		Weights:   w,
		Sum:       mat.Sum(w),
	}
	k.buildCorrelation()
	return k, nil
}

func (k *Kernel) buildCorrelation() {
	r := k.Radius
	span := 4*r + 1
	size := 2*r + 1
	k.corr = make([]float64, span*span)
	for dy := -2 * r; dy <= 2*r; dy++ {
		for dx := -2 * r; dx <= 2*r; dx++ {
			var sum float64
			for v := 0; v < size; v++ {
				v2 := v + dy
				if v2 < 0 || v2 >= size {
					continue
				}
				for u := 0; u < size; u++ {
					u2 := u + dx
					if u2 < 0 || u2 >= size {
						continue
					}
					sum += k.Weights.At(v, u) * k.Weights.At(v2, u2)
				}
			}
			k.corr[(dy+2*r)*span+(dx+2*r)] = sum
		}
	}
}

// Correlation returns the overlap Σ K(u,v)·K(u+dx,v+dy) of two kernels
// whose centers are (dx,dy) cells apart. It is zero beyond 2·radius on either axis.
func (k *Kernel) Correlation(dx, dy int) float64 {
	r := k.Radius
	if dx < -2*r || dx > 2*r || dy < -2*r || dy > 2*r {
		return 0
	}
	span := 4*r + 1
	return k.corr[(dy+2*r)*span+(dx+2*r)]
}

// Project returns Σ K ⊙ field over the window centered at (col,row).
func (k *Kernel) Project(field *mat.Dense, col, row int) (float64, error) {
	rows, cols := field.Dims()
	r := k.Radius
	if row-r < 0 || col-r < 0 || row+r >= rows || col+r >= cols {
		return 0, fmt.Errorf("%w: window radius %d at (col=%d,row=%d) exceeds %dx%d field",
			ErrOutOfBounds, r, col, row, rows, cols)
	}
	window := field.Slice(row-r, row+r+1, col-r, col+r+1).(*mat.Dense)
	var sum float64
	for i := 0; i <= 2*r; i++ {
		sum += floats.Dot(k.Weights.RawRowView(i), window.RawRowView(i))
	}
	return sum, nil
}

type kernelKey struct {
	decay, threshold float64
}

var (
	kernelMu    sync.Mutex
	kernelCache = map[kernelKey]*Kernel{}
)

// KernelFor returns a shared kernel for (decay, threshold), building it on
// first use.
func KernelFor(decay, threshold float64) (*Kernel, error) {
	key := kernelKey{decay, threshold}

	kernelMu.Lock()
	defer kernelMu.Unlock()
	if k, ok := kernelCache[key]; ok {
		return k, nil
	}
	k, err := BuildKernel(decay, threshold)
	if err != nil {
		return nil, err
	}
	kernelCache[key] = k
	return k, nil
}
