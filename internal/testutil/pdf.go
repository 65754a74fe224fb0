// Package testutil builds small PDF and image fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// Page describes one fixture page
type Page struct {
	Width  float64
	Height float64
	Text   string
}

// Letter is a US Letter page with a line of text
func Letter(text string) Page {
	return Page{Width: 612, Height: 792, Text: text}
}

// BlankPDF returns a PDF with n US Letter pages labelled "Page i"
func BlankPDF(n int) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Letter(fmt.Sprintf("Page %d", i+1))
	}
	return BuildPDF(pages...)
}

// BuildPDF writes a minimal, valid PDF 1.4 file with a classic xref table
func BuildPDF(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, p := range pages {
		content := ""
		if p.Text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 %.0f Td (%s) Tj ET", p.Height-72, escape(p.Text))
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.0f %.0f] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", p.Width, p.Height, 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// SignaturePNG returns a w x h PNG with a diagonal stroke on a transparent background
func SignaturePNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	ink := color.NRGBA{A: 255}
	for x := 0; x < w; x++ {
		y := x * h / w
		for dy := -1; dy <= 1; dy++ {
			if yy := y + dy; yy >= 0 && yy < h {
				img.Set(x, yy, ink)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// DataURL wraps PNG bytes the way a browser canvas exports them
func DataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
