package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/retinotectal/config"
)

func newTestSubstrate(t *testing.T, rows, cols, offset int, st Strategy) *Substrate {
	t.Helper()
	s := NewSubstrate(rows, cols, offset)
	if err := s.Initialize(st); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func TestGapAssayColumns(t *testing.T) {
	s := newTestSubstrate(t, 4, 10, 0, GapAssay{
		Begin:           0.5,
		End:             0.2,
		FirstBlock:      config.Ligand,
		SecondBlock:     config.Receptor,
		FirstBlockConc:  1.5,
		SecondBlockConc: 2,
	})

	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			lig, rec := s.At(c, r)
			var wantL, wantR float64
			switch {
			case c < 5:
				wantL = 1.5
			case c < 7:
			default:
				wantR = 2
			}
			if lig != wantL || rec != wantR {
				t.Errorf("cell (col=%d,row=%d) = (%g,%g), want (%g,%g)", c, r, lig, rec, wantL, wantR)
			}
		}
	}
}

func TestInvertedGapFillsMiddle(t *testing.T) {
	s := newTestSubstrate(t, 4, 10, 0, InvertedGapAssay{
		Begin:          0.5,
		End:            0.2,
		FirstBlock:     config.Receptor,
		FirstBlockConc: 0.8,
	})

	for c := 0; c < s.Cols; c++ {
		lig, rec := s.At(c, 2)
		want := 0.0
		if c >= 5 && c < 7 {
			want = 0.8
		}
		if lig != 0 || rec != want {
			t.Errorf("col %d = (%g,%g), want (0,%g)", c, lig, rec, want)
		}
	}
}

func TestStripeAssayRows(t *testing.T) {
	s := newTestSubstrate(t, 8, 6, 0, StripeAssay{
		Forward:      true,
		Reverse:      true,
		LigandConc:   1,
		ReceptorConc: 1,
		Width:        2,
	})

	for r := 0; r < s.Rows; r++ {
		ligandRow := (r/2)%2 == 0
		for c := 0; c < s.Cols; c++ {
			lig, rec := s.At(c, r)
			if ligandRow && (lig != 1 || rec != 0) {
				t.Errorf("row %d col %d = (%g,%g), want ligand-only", r, c, lig, rec)
			}
			if !ligandRow && (lig != 0 || rec != 1) {
				t.Errorf("row %d col %d = (%g,%g), want receptor-only", r, c, lig, rec)
			}
		}
	}
}

func TestStripeAssayToggles(t *testing.T) {
	s := newTestSubstrate(t, 4, 3, 0, StripeAssay{
		Forward:      true,
		Reverse:      false,
		LigandConc:   2,
		ReceptorConc: 5,
		Width:        1,
	})

	tests := []struct {
		row      int
		lig, rec float64
	}{
		{0, 2, 0},
		{1, 0, 0},
		{2, 2, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		lig, rec := s.At(1, tt.row)
		if lig != tt.lig || rec != tt.rec {
			t.Errorf("row %d = (%g,%g), want (%g,%g)", tt.row, lig, rec, tt.lig, tt.rec)
		}
	}
}

func TestGradientProfile(t *testing.T) {
	g := Gradient{
		LigandMin: 0.01, LigandMax: 1,
		ReceptorMin: 0.01, ReceptorMax: 1,
		LigandSteepness: 1, ReceptorSteepness: 2,
	}
	s := newTestSubstrate(t, 2, 5, 2, g)

	for c := 0; c < s.InnerCols(); c++ {
		frac := float64(c) / 4
		wantL := 0.01 + 0.99*frac
		wantR := 0.01 + 0.99*math.Pow(1-frac, 2)
		lig, rec := s.At(c+s.Offset, 1)
		if math.Abs(lig-wantL) > 1e-12 {
			t.Errorf("ligand col %d = %g, want %g", c, lig, wantL)
		}
		if math.Abs(rec-wantR) > 1e-12 {
			t.Errorf("receptor col %d = %g, want %g", c, rec, wantR)
		}
	}

	// Border: v_k = edge·ratio^(k·steepness)
	edge, inner := s.Ligands.At(0, 2), s.Ligands.At(0, 3)
	ratio := edge / inner
	for k := 1; k <= 2; k++ {
		want := edge * math.Pow(ratio, float64(k))
		if got := s.Ligands.At(0, 2-k); math.Abs(got-want) > 1e-12 {
			t.Errorf("left ligand border k=%d = %g, want %g", k, got, want)
		}
	}
	if s.Ligands.At(0, 0) >= s.Ligands.At(0, 1) {
		t.Error("ligand border should keep fading outward on the low side")
	}
	if s.Ligands.At(0, 6) <= s.Ligands.At(0, 5) {
		t.Error("ligand border should keep rising outward on the high side")
	}
}

func TestGradientFlatBorder(t *testing.T) {
	g := Gradient{
		LigandMin: 1, LigandMax: 1,
		ReceptorMin: 1, ReceptorMax: 1,
		LigandSteepness: 1, ReceptorSteepness: 1,
	}
	s := newTestSubstrate(t, 1, 4, 3, g)
	for c := 0; c < s.Cols; c++ {
		if lig, rec := s.At(c, 0); lig != 1 || rec != 1 {
			t.Errorf("col %d = (%g,%g), want flat 1", c, lig, rec)
		}
	}
}

func TestWedgeLayout(t *testing.T) {
	s := newTestSubstrate(t, 20, 10, 0, Wedge{NarrowEdge: 2, WideEdge: 6})

	for c := 0; c < s.Cols; c++ {
		if lig, rec := s.At(c, 0); lig != 1 || rec != 0 {
			t.Errorf("row 0 col %d = (%g,%g), want ligand-only", c, lig, rec)
		}
		if lig, rec := s.At(c, 4); lig != 0 || rec != 1 {
			t.Errorf("row 4 col %d = (%g,%g), want receptor-only", c, lig, rec)
		}
	}

	for c := 0; c < 3; c++ {
		if _, rec := s.At(c, 1); rec != 1 {
			t.Errorf("row 1 col %d should be inside the wedge", c)
		}
	}
	if lig, _ := s.At(3, 1); lig != 1 {
		t.Error("row 1 col 3 should be outside the wedge")
	}

	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			lig, rec := s.At(c, r)
			if (lig == 0) == (rec == 0) {
				t.Fatalf("cell (col=%d,row=%d) = (%g,%g) is not single-typed", c, r, lig, rec)
			}
		}
	}
}

func TestInitializeOnce(t *testing.T) {
	s := newTestSubstrate(t, 2, 2, 0, Wedge{NarrowEdge: 1, WideEdge: 1})
	err := s.Initialize(Wedge{NarrowEdge: 1, WideEdge: 1})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("second Initialize = %v, want ErrConfiguration", err)
	}
	if s.Kind() != config.Wedges {
		t.Errorf("Kind = %q", s.Kind())
	}
}

func TestStrategyFromConfigMissingKeys(t *testing.T) {
	cfg, err := config.FromMap(nil)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Substrate.Type = config.Gap
	cfg.Substrate.Gap = config.GapConfig{Begin: ptr(0.5)}

	_, err = StrategyFromConfig(cfg)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Fatalf("StrategyFromConfig = %v, want ErrConfiguration", err)
	}
}

func TestStrategyFromPresets(t *testing.T) {
	for _, name := range config.PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg, err := config.Preset(config.SubstrateType(name))
			if err != nil {
				t.Fatal(err)
			}
			st, err := StrategyFromConfig(cfg)
			if err != nil {
				t.Fatalf("StrategyFromConfig: %v", err)
			}
			if string(st.Kind()) != name {
				t.Errorf("Kind = %q, want %q", st.Kind(), name)
			}
			s := NewSubstrate(cfg.Substrate.Rows, cfg.Substrate.Cols, cfg.Simulation.GCSize)
			if err := s.Initialize(st); err != nil {
				t.Fatalf("Initialize: %v", err)
			}
		})
	}
}

func TestCrop(t *testing.T) {
	g := Gradient{
		LigandMin: 0.1, LigandMax: 2,
		ReceptorMin: 0.1, ReceptorMax: 2,
		LigandSteepness: 1, ReceptorSteepness: 1,
	}
	s := newTestSubstrate(t, 3, 10, 2, g)

	tests := []struct {
		scope string
		cols  int
		from  int
	}{
		{config.ScopeAnterior, 5, 0},
		{config.ScopePosterior, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			out, err := s.Crop(tt.scope)
			if err != nil {
				t.Fatal(err)
			}
			if out.InnerCols() != tt.cols || out.InnerRows() != 3 || out.Offset != 2 {
				t.Fatalf("cropped to %dx%d offset %d", out.InnerRows(), out.InnerCols(), out.Offset)
			}
			for r := 0; r < out.Rows; r++ {
				for c := 0; c < out.Cols; c++ {
					if out.Ligands.At(r, c) != s.Ligands.At(0, tt.from+c) {
						t.Fatalf("ligand (col=%d,row=%d) not taken from source column %d", c, r, tt.from+c)
					}
				}
			}
		})
	}

	if full, _ := s.Crop(config.ScopeFull); full != s {
		t.Error("full scope should return the substrate itself")
	}
	if _, err := s.Crop("dorsal"); !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unknown scope = %v, want ErrConfiguration", err)
	}
}
