package writer

// ComplexityParams are the file properties CLEVEL depends on.
type ComplexityParams struct {
	Bands       int
	Images      int
	Pixels      int
	Lines       int
	BlockWidth  int
	BlockHeight int
	FileLength  uint64
	DESCount    int
}

// ComplexityLevel raises base to the lowest MIL-STD-2500C complexity
// level the file fits in. The result is never lower than base.
func ComplexityLevel(p ComplexityParams, base int) int {
	level := base
	if p.Bands > 9 || p.Images > 20 || p.Pixels > 2048 || p.Lines > 2048 ||
		p.BlockWidth > 2048 || p.BlockHeight > 2048 || p.FileLength > 52428799 {
		level = max(level, 5)
	}
	if p.Pixels > 8192 || p.Lines > 8192 || p.BlockWidth > 8192 || p.BlockHeight > 8192 ||
		p.FileLength > 1073741833 || p.DESCount > 10 {
		level = max(level, 6)
	}
	if p.Bands > 256 || p.Pixels > 65536 || p.Lines > 65536 ||
		p.FileLength > 2147483647 || p.DESCount > 50 {
		level = max(level, 7)
	}
	return level
}
