package pngcodec

// adam7Pass describes one of the seven Adam7 interlacing passes: a pixel
// at (x, y) in the final image belongs to this pass when
// x % xMod == xOff and y % yMod == yOff.
type adam7Pass struct {
	xOff, xMod, yOff, yMod int
}

var adam7Passes = [7]adam7Pass{
	{0, 8, 0, 8},
	{4, 8, 0, 8},
	{0, 4, 4, 8},
	{2, 4, 0, 4},
	{0, 2, 2, 4},
	{1, 2, 0, 2},
	{0, 1, 1, 2},
}

// passDimensions returns how many columns and rows of the full width x
// height image fall into the given pass.
func passDimensions(p adam7Pass, width, height int) (cols, rows int) {
	cols = (width - p.xOff + p.xMod - 1) / p.xMod
	rows = (height - p.yOff + p.yMod - 1) / p.yMod
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return
}
