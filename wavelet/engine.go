package wavelet

import "github.com/aous72/OpenJPH-sub001/linebuf"

// SplitType selects how one decomposition level splits its input, per the
// DFS downsampling-factor styles of ISO/IEC 15444-2.
type SplitType uint8

// Decomposition split types.
const (
	SplitNone  SplitType = 0 // no wavelet transform at this level
	SplitBidir SplitType = 1 // conventional two-dimensional split
	SplitHorz  SplitType = 2 // horizontal-only split
	SplitVert  SplitType = 3 // vertical-only split
)

// LowHigh splits the 1-D interval [a,b) into its low-pass and high-pass
// index ranges, with low-pass samples at even positions.
func LowHigh(a, b int) (l0, l1, h0, h1 int) {
	return ceilDiv2(a), ceilDiv2(b), a >> 1, b >> 1
}

func ceilDiv2(v int) int { return (v + 1) >> 1 }

// LevelBands holds the detail subbands produced by one decomposition level
// together with the window geometry the level consumed. Bands that the
// split type does not produce are nil.
type LevelBands struct {
	Split        SplitType
	W, H, X0, Y0 int // input window of this level, canonical coordinates
	HL, LH, HH   *linebuf.Plane
	LX0, LY0     int // canonical origin of the low-pass output
	LLW, LLH     int // low-pass output dimensions
}

// Decomposition is the output of a multi-level analysis: the residual
// low-pass plane plus, per level, the detail bands. Levels[0] is the
// finest level.
type Decomposition struct {
	LL     *linebuf.Plane
	Levels []LevelBands
}

// Analyze runs the forward transform of one tile-component plane.
// splits holds one entry per decomposition level, finest first; x0, y0 is
// the canonical origin of the plane, which fixes the lifting phase.
// The input plane is consumed.
func Analyze(k *Kernel, p *linebuf.Plane, x0, y0 int, splits []SplitType, pool *linebuf.Pool) *Decomposition {
	d := &Decomposition{Levels: make([]LevelBands, 0, len(splits))}
	cur := p
	cx, cy := x0, y0
	for _, split := range splits {
		lb := LevelBands{Split: split, W: cur.Width(), H: cur.Height(), X0: cx, Y0: cy}
		var ll *linebuf.Plane
		switch split {
		case SplitBidir:
			low, high := vertFwd(k, cur, cy, pool)
			ll, lb.HL = horzSplit(k, low, cx, pool)
			lb.LH, lb.HH = horzSplit(k, high, cx, pool)
		case SplitHorz:
			ll, lb.HL = horzSplit(k, cur, cx, pool)
		case SplitVert:
			ll, lb.LH = vertFwdSplit(k, cur, cy, pool)
		default:
			ll = cur
		}
		if split == SplitBidir || split == SplitHorz {
			l0, _, _, _ := LowHigh(cx, cx+lb.W)
			cx = l0
		}
		if split == SplitBidir || split == SplitVert {
			l0, _, _, _ := LowHigh(cy, cy+lb.H)
			cy = l0
		}
		lb.LX0, lb.LY0 = cx, cy
		lb.LLW, lb.LLH = ll.Width(), ll.Height()
		d.Levels = append(d.Levels, lb)
		cur = ll
	}
	d.LL = cur
	return d
}

// Synthesize runs the inverse transform, reconstructing the plane the
// matching Analyze consumed. skip drops that many of the finest levels;
// the result is then the low-pass image of level skip.
func Synthesize(k *Kernel, d *Decomposition, skip int, pool *linebuf.Pool) *linebuf.Plane {
	cur := d.LL
	for i := len(d.Levels) - 1; i >= skip; i-- {
		lb := d.Levels[i]
		switch lb.Split {
		case SplitBidir:
			low := horzJoin(k, cur, lb.HL, lb.W, lb.X0, pool)
			high := horzJoin(k, lb.LH, lb.HH, lb.W, lb.X0, pool)
			cur = vertBwd(k, low, high, lb.H, lb.Y0, pool)
		case SplitHorz:
			cur = horzJoin(k, cur, lb.HL, lb.W, lb.X0, pool)
		case SplitVert:
			cur = vertBwdSplit(k, cur, lb.LH, lb.H, lb.Y0, pool)
		default:
			// passthrough level
		}
	}
	return cur
}

// planeFlags derives line flags from the kernel.
func planeFlags(k *Kernel) linebuf.Flags {
	if k.Reversible {
		return linebuf.Reversible | linebuf.Integer
	}
	return 0
}

// reflect mirrors a row index into [0, h) about the boundary samples.
func reflect(r, h int) int {
	if r < 0 {
		return -r
	}
	if r >= h {
		return 2*h - 2 - r
	}
	return r
}

// vertFwd applies the vertical lifting chain to a plane and splits its
// rows into low-pass and high-pass planes. The input plane's lines are
// reused by the outputs.
func vertFwd(k *Kernel, p *linebuf.Plane, y0 int, pool *linebuf.Pool) (low, high *linebuf.Plane) {
	h := p.Height()
	cas := y0 & 1
	if h == 1 {
		if cas == 0 {
			return p, emptyPlane(p)
		}
		scaleSingleRowFwd(k, p.Line(0))
		return emptyPlane(p), p
	}

	rows := make([]*linebuf.Line, h)
	for r := 0; r < h; r++ {
		rows[r] = p.Line(r)
	}
	for s := range k.Steps {
		for r := 0; r < h; r++ {
			if rowIsTarget(s, cas, r) {
				k.vertStepRows(s, rows, r, h, false)
			}
		}
	}
	if !k.Reversible {
		for r := 0; r < h; r++ {
			if rowIsHigh(cas, r) {
				scaleRow(rows[r], k.K)
			} else {
				scaleRow(rows[r], 1/k.K)
			}
		}
	}
	return splitRows(rows, cas, p)
}

// vertStepRows applies lifting step s to row r using its mirrored
// neighbours.
func (k *Kernel) vertStepRows(s int, rows []*linebuf.Line, r, h int, inverse bool) {
	up := rows[reflect(r-1, h)]
	dn := rows[reflect(r+1, h)]
	if inverse {
		k.VertStepBwd(s, up, dn, rows[r])
	} else {
		k.VertStepFwd(s, up, dn, rows[r])
	}
}

// rowIsHigh reports whether local row r is a high-pass row given the
// vertical phase cas.
func rowIsHigh(cas, r int) bool { return (r+cas)%2 == 1 }

// rowIsTarget reports whether lifting step s modifies local row r.
// Even steps modify high-pass rows.
func rowIsTarget(s, cas, r int) bool {
	if s%2 == 0 {
		return rowIsHigh(cas, r)
	}
	return !rowIsHigh(cas, r)
}

// scaleSingleRowFwd applies the degenerate single-high-row analysis rule.
func scaleSingleRowFwd(k *Kernel, l *linebuf.Line) {
	if !k.Reversible {
		return
	}
	switch l.Tag() {
	case linebuf.Int64:
		d := l.I64()
		for i := range d {
			d[i] <<= 1
		}
	default:
		d := l.I32()
		for i := range d {
			d[i] <<= 1
		}
	}
}

// scaleSingleRowBwd inverts scaleSingleRowFwd.
func scaleSingleRowBwd(k *Kernel, l *linebuf.Line) {
	if !k.Reversible {
		return
	}
	switch l.Tag() {
	case linebuf.Int64:
		d := l.I64()
		for i := range d {
			d[i] >>= 1
		}
	default:
		d := l.I32()
		for i := range d {
			d[i] >>= 1
		}
	}
}

func scaleRow(l *linebuf.Line, f float32) {
	d := l.F32()
	for i := range d {
		d[i] *= f
	}
}

// splitRows moves the lifted rows into separate low and high planes.
func splitRows(rows []*linebuf.Line, cas int, src *linebuf.Plane) (low, high *linebuf.Plane) {
	var lowRows, highRows []*linebuf.Line
	for r, l := range rows {
		if rowIsHigh(cas, r) {
			highRows = append(highRows, l)
		} else {
			lowRows = append(lowRows, l)
		}
	}
	return planeFromRows(lowRows, src), planeFromRows(highRows, src)
}

func emptyPlane(like *linebuf.Plane) *linebuf.Plane {
	return planeFromRows(nil, like)
}

// vertFwdSplit is vertFwd for a vertical-only decomposition level.
func vertFwdSplit(k *Kernel, p *linebuf.Plane, y0 int, pool *linebuf.Pool) (low, high *linebuf.Plane) {
	return vertFwd(k, p, y0, pool)
}

// vertBwd reverses vertFwd: interleaves low and high planes back and runs
// the inverse lifting chain.
func vertBwd(k *Kernel, low, high *linebuf.Plane, h, y0 int, pool *linebuf.Pool) *linebuf.Plane {
	cas := y0 & 1
	if h == 0 {
		return low
	}
	if h == 1 {
		if cas == 0 {
			return low
		}
		scaleSingleRowBwd(k, high.Line(0))
		return high
	}
	rows := make([]*linebuf.Line, h)
	li, hi := 0, 0
	for r := 0; r < h; r++ {
		if rowIsHigh(cas, r) {
			rows[r] = high.Line(hi)
			hi++
		} else {
			rows[r] = low.Line(li)
			li++
		}
	}
	if !k.Reversible {
		for r := 0; r < h; r++ {
			if rowIsHigh(cas, r) {
				scaleRow(rows[r], 1/k.K)
			} else {
				scaleRow(rows[r], k.K)
			}
		}
	}
	for s := len(k.Steps) - 1; s >= 0; s-- {
		for r := 0; r < h; r++ {
			if rowIsTarget(s, cas, r) {
				k.vertStepRows(s, rows, r, h, true)
			}
		}
	}
	return linebuf.PlaneFromLines(rows[0].Tag(), rows[0].Flags(), rows[0].Width(), rows)
}

// vertBwdSplit is vertBwd for a vertical-only decomposition level.
func vertBwdSplit(k *Kernel, low, high *linebuf.Plane, h, y0 int, pool *linebuf.Pool) *linebuf.Plane {
	return vertBwd(k, low, high, h, y0, pool)
}

// horzSplit runs the horizontal transform over every row of a plane,
// producing the low and high column planes.
func horzSplit(k *Kernel, p *linebuf.Plane, x0 int, pool *linebuf.Pool) (low, high *linebuf.Plane) {
	w := p.Width()
	even := x0%2 == 0
	lw, hw := subbandWidths(w, even)
	flags := p.Flags()
	lowRows := make([]*linebuf.Line, p.Height())
	highRows := make([]*linebuf.Line, p.Height())
	for r := 0; r < p.Height(); r++ {
		ld := pool.Get(p.Tag(), lw, flags)
		hd := pool.Get(p.Tag(), hw, flags)
		k.HorzFwd(p.Line(r), ld, hd, even)
		pool.Put(p.Line(r))
		lowRows[r], highRows[r] = ld, hd
	}
	return linebuf.PlaneFromLines(p.Tag(), flags, lw, lowRows),
		linebuf.PlaneFromLines(p.Tag(), flags, hw, highRows)
}

// horzJoin reverses horzSplit for one resolution, rebuilding rows of
// width w.
func horzJoin(k *Kernel, low, high *linebuf.Plane, w, x0 int, pool *linebuf.Pool) *linebuf.Plane {
	even := x0%2 == 0
	h := low.Height()
	if high != nil && high.Height() > h {
		h = high.Height()
	}
	tag := low.Tag()
	flags := low.Flags()
	rows := make([]*linebuf.Line, h)
	for r := 0; r < h; r++ {
		dst := pool.Get(tag, w, flags)
		k.HorzBwd(dst, low.Line(r), high.Line(r), even)
		pool.Put(low.Line(r))
		pool.Put(high.Line(r))
		rows[r] = dst
	}
	return linebuf.PlaneFromLines(tag, flags, w, rows)
}

func planeFromRows(rows []*linebuf.Line, like *linebuf.Plane) *linebuf.Plane {
	w := like.Width()
	if len(rows) > 0 {
		w = rows[0].Width()
	}
	return linebuf.PlaneFromLines(like.Tag(), like.Flags(), w, rows)
}
