package anchor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// node is one anchor with its incoming and outgoing control points.
type node struct {
	in, at, out Point
}

// ParseSVGPath converts SVG path data (the "d" attribute) into a Path.
//
// Each subpath becomes one stroke laid out in the in/anchor/out layout.
// Every command of SVG path data is accepted (M, L, H, V, C, S, Q, T, A
// and Z, absolute and relative) and every end point becomes an anchor,
// including points on a straight run. Straight segments and arcs get
// control points equal to their anchors. A closing segment that returns
// exactly to the subpath start does not produce a duplicate anchor.
func ParseSVGPath(d string) (*Path, error) {
	toks, err := tokenize(d)
	if err != nil {
		return nil, err
	}

	p := &svgParser{toks: toks}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &Path{Strokes: p.strokes}, nil
}

type token struct {
	cmd byte // zero for numbers
	num float64
}

const pathCommands = "MmLlHhVvCcSsQqTtAaZz"

// arcArgs is the number of arguments of one arc segment.
const arcArgs = 7

func tokenize(d string) ([]token, error) {
	var (
		toks []token
		cmd  byte
		args int
	)
	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ',' || unicode.IsSpace(rune(c)):
			i++
		case strings.IndexByte(pathCommands, c) >= 0:
			toks = append(toks, token{cmd: c})
			cmd, args = c, 0
			i++
		case isArcFlag(cmd, args) && (c == '0' || c == '1'):
			// Arc flags are one digit and may touch the next number.
			toks = append(toks, token{num: float64(c - '0')})
			args++
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			n := scanNumber(d[i:])
			v, err := strconv.ParseFloat(d[i:i+n], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at offset %d", d[i:i+n], i)
			}
			toks = append(toks, token{num: v})
			args++
			i += n
		default:
			return nil, fmt.Errorf("unsupported path command %q at offset %d", c, i)
		}
	}
	return toks, nil
}

// isArcFlag reports whether the next argument of cmd is the large-arc or
// sweep flag.
func isArcFlag(cmd byte, args int) bool {
	if cmd != 'A' && cmd != 'a' {
		return false
	}
	n := args % arcArgs
	return n == 3 || n == 4
}

// scanNumber returns the length of the number at the start of s.
// "1.5.5" is two numbers and "-1-2" is two numbers, as in SVG.
func scanNumber(s string) int {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	seenDot := false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			i++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			i++
			continue
		}
		break
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	return i
}

type svgParser struct {
	toks []token
	pos  int

	strokes []Stroke
	nodes   []node
	cur     Point
	start   Point
	// lastCtrl is the second control point of the previous cubic, used by S.
	lastCtrl *Point
	// lastQuad is the control point of the previous quadratic, used by T.
	lastQuad *Point
}

func (p *svgParser) run() error {
	var cmd byte
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.cmd != 0 {
			cmd = t.cmd
			p.pos++
		} else if cmd == 0 {
			return fmt.Errorf("path data must start with a command")
		}

		var err error
		switch cmd {
		case 'M', 'm':
			err = p.moveTo(cmd == 'm')
			// Extra coordinate pairs after a move are implicit line-tos.
			if cmd == 'M' {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		case 'L', 'l':
			err = p.lineTo(cmd == 'l')
		case 'H', 'h':
			err = p.horizontal(cmd == 'h')
		case 'V', 'v':
			err = p.vertical(cmd == 'v')
		case 'C', 'c':
			err = p.cubic(cmd == 'c')
		case 'S', 's':
			err = p.smooth(cmd == 's')
		case 'Q', 'q':
			err = p.quadratic(cmd == 'q')
		case 'T', 't':
			err = p.smoothQuadratic(cmd == 't')
		case 'A', 'a':
			err = p.arc(cmd == 'a')
		case 'Z', 'z':
			p.closePath()
			cmd = 0
		}
		if err != nil {
			return err
		}
	}
	p.flush(false)
	return nil
}

func (p *svgParser) numbers(n int) ([]float64, error) {
	if p.pos+n > len(p.toks) {
		return nil, fmt.Errorf("path data ends before %d coordinates", n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := p.toks[p.pos+i]
		if t.cmd != 0 {
			return nil, fmt.Errorf("expected coordinate, found command %q", t.cmd)
		}
		out[i] = t.num
	}
	p.pos += n
	return out, nil
}

func (p *svgParser) point(v []float64, rel bool) Point {
	if rel {
		return Point{X: p.cur.X + v[0], Y: p.cur.Y + v[1]}
	}
	return Point{X: v[0], Y: v[1]}
}

func (p *svgParser) moveTo(rel bool) error {
	v, err := p.numbers(2)
	if err != nil {
		return err
	}
	p.flush(false)
	p.cur = p.point(v, rel)
	p.start = p.cur
	p.nodes = append(p.nodes, node{in: p.cur, at: p.cur, out: p.cur})
	p.lastCtrl, p.lastQuad = nil, nil
	return nil
}

func (p *svgParser) straightTo(to Point) {
	p.ensureStarted()
	p.nodes = append(p.nodes, node{in: to, at: to, out: to})
	p.cur = to
	p.lastCtrl, p.lastQuad = nil, nil
}

func (p *svgParser) lineTo(rel bool) error {
	v, err := p.numbers(2)
	if err != nil {
		return err
	}
	p.straightTo(p.point(v, rel))
	return nil
}

func (p *svgParser) horizontal(rel bool) error {
	v, err := p.numbers(1)
	if err != nil {
		return err
	}
	to := Point{X: v[0], Y: p.cur.Y}
	if rel {
		to.X += p.cur.X
	}
	p.straightTo(to)
	return nil
}

func (p *svgParser) vertical(rel bool) error {
	v, err := p.numbers(1)
	if err != nil {
		return err
	}
	to := Point{X: p.cur.X, Y: v[0]}
	if rel {
		to.Y += p.cur.Y
	}
	p.straightTo(to)
	return nil
}

func (p *svgParser) curveTo(c1, c2, to Point) {
	p.ensureStarted()
	p.nodes[len(p.nodes)-1].out = c1
	p.nodes = append(p.nodes, node{in: c2, at: to, out: to})
	p.cur = to
	p.lastCtrl, p.lastQuad = &c2, nil
}

func (p *svgParser) cubic(rel bool) error {
	v, err := p.numbers(6)
	if err != nil {
		return err
	}
	c1 := p.point(v[0:2], rel)
	c2 := p.point(v[2:4], rel)
	to := p.point(v[4:6], rel)
	p.curveTo(c1, c2, to)
	return nil
}

func (p *svgParser) smooth(rel bool) error {
	v, err := p.numbers(4)
	if err != nil {
		return err
	}
	c1 := p.cur
	if p.lastCtrl != nil {
		c1 = Point{X: 2*p.cur.X - p.lastCtrl.X, Y: 2*p.cur.Y - p.lastCtrl.Y}
	}
	c2 := p.point(v[0:2], rel)
	to := p.point(v[2:4], rel)
	p.curveTo(c1, c2, to)
	return nil
}

func (p *svgParser) quadratic(rel bool) error {
	v, err := p.numbers(4)
	if err != nil {
		return err
	}
	p.quadTo(p.point(v[0:2], rel), p.point(v[2:4], rel))
	return nil
}

func (p *svgParser) smoothQuadratic(rel bool) error {
	v, err := p.numbers(2)
	if err != nil {
		return err
	}
	q := p.cur
	if p.lastQuad != nil {
		q = Point{X: 2*p.cur.X - p.lastQuad.X, Y: 2*p.cur.Y - p.lastQuad.Y}
	}
	p.quadTo(q, p.point(v, rel))
	return nil
}

// quadTo adds a quadratic segment with control point q, raised to a cubic.
func (p *svgParser) quadTo(q, to Point) {
	from := p.cur
	c1 := Point{X: from.X + 2.0/3.0*(q.X-from.X), Y: from.Y + 2.0/3.0*(q.Y-from.Y)}
	c2 := Point{X: to.X + 2.0/3.0*(q.X-to.X), Y: to.Y + 2.0/3.0*(q.Y-to.Y)}
	p.curveTo(c1, c2, to)
	p.lastCtrl, p.lastQuad = nil, &q
}

// arc adds the end point of an elliptical arc as an anchor. Radii and
// rotation only shape the curve between anchors and are not kept.
func (p *svgParser) arc(rel bool) error {
	v, err := p.numbers(arcArgs)
	if err != nil {
		return err
	}
	for _, flag := range v[3:5] {
		if flag != 0 && flag != 1 {
			return fmt.Errorf("arc flag must be 0 or 1, got %v", flag)
		}
	}
	p.straightTo(p.point(v[5:7], rel))
	return nil
}

func (p *svgParser) closePath() {
	if n := len(p.nodes); n > 1 && p.nodes[n-1].at == p.nodes[0].at {
		p.nodes[0].in = p.nodes[n-1].in
		p.nodes = p.nodes[:n-1]
	}
	p.flush(true)
	p.cur = p.start
	p.lastCtrl, p.lastQuad = nil, nil
}

// ensureStarted opens a subpath at the current point when drawing
// continues after a close without a new move.
func (p *svgParser) ensureStarted() {
	if len(p.nodes) == 0 {
		p.start = p.cur
		p.nodes = append(p.nodes, node{in: p.cur, at: p.cur, out: p.cur})
	}
}

func (p *svgParser) flush(closed bool) {
	if len(p.nodes) == 0 {
		return
	}
	pts := make([]float64, 0, len(p.nodes)*groupSize)
	for _, n := range p.nodes {
		pts = append(pts, n.in.X, n.in.Y, n.at.X, n.at.Y, n.out.X, n.out.Y)
	}
	p.strokes = append(p.strokes, Stroke{Points: pts, Closed: closed})
	p.nodes = nil
}
