package render

import "testing"

func TestClipHistogram(t *testing.T) {
	hist := []int{10, 0, 0, 0}
	clipHistogram(hist, 4)
	want := []int{6, 1, 2, 1}
	for i := range want {
		if hist[i] != want[i] {
			t.Fatalf("got %v, want %v", hist, want)
		}
	}

	untouched := []int{1, 2, 3}
	clipHistogram(untouched, 3)
	if untouched[0] != 1 || untouched[1] != 2 || untouched[2] != 3 {
		t.Errorf("histogram under the limit changed: %v", untouched)
	}
}

func TestEqualizeConstantPlane(t *testing.T) {
	const n = 64
	pix := make([]uint8, n*n)
	for i := range pix {
		pix[i] = 90
	}
	out := equalize(pix, n, n)
	if len(out) != len(pix) {
		t.Fatalf("len = %d, want %d", len(out), len(pix))
	}
	for i, v := range out {
		if v != out[0] {
			t.Fatalf("pixel %d = %d, want %d everywhere", i, v, out[0])
		}
	}
}

func TestTileMapping(t *testing.T) {
	pix := []uint8{10, 20, 30, 40}
	lut := tileMapping(pix, 4, 0, 1, 0, 4)
	if lut[9] != 0 || lut[10] != 63.75 || lut[25] != 127.5 || lut[40] != 255 || lut[255] != 255 {
		t.Errorf("lut = %v", lut[:41])
	}
	for v := 1; v < claheBins; v++ {
		if lut[v] < lut[v-1] {
			t.Fatalf("mapping decreases at %d", v)
		}
	}
}

func TestEnhanceColorKeepsGray(t *testing.T) {
	const n = 16
	r := &raster{shape: []int{n, n, 3}, pix: make([]uint8, n*n*3)}
	for i := 0; i < n*n; i++ {
		v := uint8(i % 200)
		r.pix[i*3], r.pix[i*3+1], r.pix[i*3+2] = v, v, v
	}
	if err := enhance(r); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n*n; i++ {
		p := r.pix[i*3 : i*3+3]
		if p[0] != p[1] || p[1] != p[2] {
			t.Fatalf("pixel %d became colored: %v", i, p)
		}
	}
}

func TestEnhanceRejectsOddChannels(t *testing.T) {
	r := &raster{shape: []int{2, 2, 4}, pix: make([]uint8, 16)}
	if err := enhance(r); err == nil {
		t.Error("expected an error for 4 channels")
	}
}
