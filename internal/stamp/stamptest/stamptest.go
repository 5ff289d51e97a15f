// Package stamptest builds small but valid PDF documents and mark images for tests.
package stamptest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Page is a page size in points.
type Page struct {
	Width, Height float64
}

// Letter is US Letter in points.
var Letter = Page{Width: 612, Height: 792}

// PDF returns a PDF 1.4 document with one blank page per entry in pages.
// With no pages it returns a structurally valid document whose page tree is empty.
func PDF(pages ...Page) []byte {
	var objects []string
	pageRefs := ""
	// Object 1 is the catalog, 2 the page tree; each page takes two objects (page, content).
	for i, p := range pages {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1
		pageRefs += fmt.Sprintf("%d 0 R ", pageObj)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents %d 0 R >>",
				p.Width, p.Height, contentObj),
			"<< /Length 3 >>\nstream\nq Q\nendstream",
		)
	}
	objects = append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", pageRefs, len(pages)),
	}, objects...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Mark returns a w x h opaque PNG usable as an approval mark.
func Mark(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 20, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
