package render

// raster is an 8-bit row-major array with the shape of the windowed samples.
type raster struct {
	shape []int
	pix   []uint8
}

func (r *raster) dims() int {
	return len(r.shape)
}

// channels reports the trailing sample count of a 3-D raster, or 0.
func (r *raster) channels() int {
	if len(r.shape) != 3 {
		return 0
	}
	return r.shape[2]
}
