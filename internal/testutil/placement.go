package testutil

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Box is an axis aligned rectangle in page user space
type Box struct {
	LLX, LLY, URX, URY float64
}

// Within reports whether b lies inside outer, allowing tol points of rounding
func (b Box) Within(outer Box, tol float64) bool {
	return b.LLX >= outer.LLX-tol && b.LLY >= outer.LLY-tol &&
		b.URX <= outer.URX+tol && b.URY <= outer.URY+tol
}

// Placement is a form XObject drawn on a page
type Placement struct {
	Name string
	Box  Box
}

type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// PagePlacements returns the user space box of every form XObject painted on
// page n (1-based), following q/Q and cm in the page content.
func PagePlacements(data []byte, n int) ([]Placement, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	content, err := PageContent(data, n)
	if err != nil {
		return nil, err
	}
	xobjects := r.Page(n).V.Key("Resources").Key("XObject")

	var (
		out   []Placement
		stack []matrix
		ctm   = identity
		prev  []string
	)
	for _, tok := range strings.Fields(string(content)) {
		switch tok {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if len(stack) > 0 {
				ctm = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if m, ok := lastMatrix(prev); ok {
				ctm = m.mul(ctm)
			}
		case "Do":
			if len(prev) == 0 || !strings.HasPrefix(prev[len(prev)-1], "/") {
				break
			}
			name := strings.TrimPrefix(prev[len(prev)-1], "/")
			form := xobjects.Key(name)
			if form.Kind() != pdf.Stream {
				break
			}
			placed := ctm
			if fm := form.Key("Matrix"); fm.Len() == 6 {
				placed = arrayMatrix(fm).mul(ctm)
			}
			out = append(out, Placement{Name: name, Box: transformBox(form.Key("BBox"), placed)})
		}
		prev = append(prev, tok)
		if len(prev) > 6 {
			prev = prev[1:]
		}
	}
	return out, nil
}

func lastMatrix(toks []string) (matrix, bool) {
	if len(toks) < 6 {
		return matrix{}, false
	}
	var m matrix
	for i, tok := range toks[len(toks)-6:] {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return matrix{}, false
		}
		m[i] = v
	}
	return m, true
}

func arrayMatrix(v pdf.Value) matrix {
	var m matrix
	for i := 0; i < 6; i++ {
		m[i] = v.Index(i).Float64()
	}
	return m
}

func transformBox(bbox pdf.Value, m matrix) Box {
	x0, y0 := bbox.Index(0).Float64(), bbox.Index(1).Float64()
	x1, y1 := bbox.Index(2).Float64(), bbox.Index(3).Float64()

	b := Box{LLX: math.Inf(1), LLY: math.Inf(1), URX: math.Inf(-1), URY: math.Inf(-1)}
	for _, p := range [][2]float64{{x0, y0}, {x0, y1}, {x1, y0}, {x1, y1}} {
		x, y := m.apply(p[0], p[1])
		b.LLX, b.URX = math.Min(b.LLX, x), math.Max(b.URX, x)
		b.LLY, b.URY = math.Min(b.LLY, y), math.Max(b.URY, y)
	}
	return b
}
