package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/retinotectal/config"
)

// Overlap weights the fiber-fiber interaction between two cones by their
// centre offset. Weights vanish beyond Reach on either axis.
type Overlap interface {
	Weight(dx, dy float64, ri, rj int) float64
	Reach() float64
}

// KernelOverlap uses the kernel autocorrelation at the rounded offset.
type KernelOverlap struct {
	Kernel *Kernel
}

func (o KernelOverlap) Weight(dx, dy float64, _, _ int) float64 {
	return o.Kernel.Correlation(int(math.Round(dx)), int(math.Round(dy)))
}

func (o KernelOverlap) Reach() float64 {
	return float64(2 * o.Kernel.Radius)
}

// CircleOverlap uses the exact intersection area of the two cone footprints.
type CircleOverlap struct {
	MaxRadius int
}

func (o CircleOverlap) Weight(dx, dy float64, ri, rj int) float64 {
	return CircleIntersection(math.Hypot(dx, dy), float64(ri), float64(rj))
}

func (o CircleOverlap) Reach() float64 {
	return float64(2 * o.MaxRadius)
}

// CircleIntersection returns the area shared by two discs of radii r1 and r2
// whose centres are d apart.
func CircleIntersection(d, r1, r2 float64) float64 {
	if d >= r1+r2 {
		return 0
	}
	if d <= math.Abs(r1-r2) {
		r := math.Min(r1, r2)
		return math.Pi * r * r
	}

	a1 := r1 * r1 * math.Acos((d*d+r1*r1-r2*r2)/(2*d*r1))
	a2 := r2 * r2 * math.Acos((d*d+r2*r2-r1*r1)/(2*d*r2))
	tri := 0.5 * math.Sqrt((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2))
	return a1 + a2 - tri
}

// NewOverlap returns the overlap formulation named by kind.
func NewOverlap(kind string, k *Kernel, radius int) (Overlap, error) {
	switch kind {
	case config.OverlapKernel:
		return KernelOverlap{Kernel: k}, nil
	case config.OverlapCircle:
		return CircleOverlap{MaxRadius: radius}, nil
	default:
		return nil, fmt.Errorf("%w: unknown ff overlap %q", config.ErrConfiguration, kind)
	}
}
