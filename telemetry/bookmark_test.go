package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Desensitization(t *testing.T) {
	bd := NewBookmarkDetector(10, 1.0, 0)

	if got := bd.Check(WindowStats{WindowEnd: 100, RhoMean: 0.8}); hasBookmark(got, BookmarkDesensitized) {
		t.Fatal("unexpected desensitized bookmark at rho 0.8")
	}

	got := bd.Check(WindowStats{WindowEnd: 200, RhoMean: 0.4})
	if !hasBookmark(got, BookmarkDesensitized) {
		t.Fatal("expected desensitized bookmark at rho 0.4")
	}

	// Still low: no repeat
	if got := bd.Check(WindowStats{WindowEnd: 300, RhoMean: 0.3}); hasBookmark(got, BookmarkDesensitized) {
		t.Error("desensitized bookmark fired twice in one episode")
	}

	got = bd.Check(WindowStats{WindowEnd: 400, RhoMean: 0.9})
	if !hasBookmark(got, BookmarkResensitized) {
		t.Error("expected resensitized bookmark at rho 0.9")
	}

	// A new episode can fire again
	got = bd.Check(WindowStats{WindowEnd: 500, RhoMean: 0.2})
	if !hasBookmark(got, BookmarkDesensitized) {
		t.Error("expected second desensitized bookmark")
	}
}

func TestBookmarkDetector_FFOnset(t *testing.T) {
	bd := NewBookmarkDetector(10, 1.0, 2.0)

	if got := bd.Check(WindowStats{WindowEnd: 100, RhoMean: 1, FFCoef: 0.5}); hasBookmark(got, BookmarkFFOnset) {
		t.Fatal("unexpected ff_onset below half height")
	}
	got := bd.Check(WindowStats{WindowEnd: 200, RhoMean: 1, FFCoef: 1.2})
	if !hasBookmark(got, BookmarkFFOnset) {
		t.Fatal("expected ff_onset past half height")
	}
	if got := bd.Check(WindowStats{WindowEnd: 300, RhoMean: 1, FFCoef: 1.9}); hasBookmark(got, BookmarkFFOnset) {
		t.Error("ff_onset fired twice")
	}
}

func TestBookmarkDetector_FFDisabled(t *testing.T) {
	bd := NewBookmarkDetector(10, 1.0, 0)
	for i := 1; i <= 5; i++ {
		if got := bd.Check(WindowStats{WindowEnd: i * 100, RhoMean: 1, FFCoef: 5}); hasBookmark(got, BookmarkFFOnset) {
			t.Fatal("ff_onset fired with zero ramp height")
		}
	}
}

func TestBookmarkDetector_MappingSettled(t *testing.T) {
	bd := NewBookmarkDetector(10, 1.0, 0)

	var fired []int
	for i := 1; i <= 10; i++ {
		got := bd.Check(WindowStats{WindowEnd: i * 100, RhoMean: 1, MappingCorr: 0.9})
		if hasBookmark(got, BookmarkMappingSettled) {
			fired = append(fired, i)
		}
	}
	if len(fired) != 1 {
		t.Fatalf("mapping_settled fired %d times, want 1", len(fired))
	}
	// Three windows of history, then three stable windows
	if fired[0] != 6 {
		t.Errorf("mapping_settled fired at window %d, want 6", fired[0])
	}
}

func TestBookmarkDetector_WeakMappingNeverSettles(t *testing.T) {
	bd := NewBookmarkDetector(10, 1.0, 0)
	for i := 1; i <= 10; i++ {
		if got := bd.Check(WindowStats{WindowEnd: i * 100, RhoMean: 1, MappingCorr: 0.1}); hasBookmark(got, BookmarkMappingSettled) {
			t.Fatal("mapping_settled fired for weak correlation")
		}
	}
}
