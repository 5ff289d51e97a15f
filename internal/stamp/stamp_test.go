package stamp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/stamp/stamptest"
)

func pageCount(t *testing.T, doc []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(doc), newConfiguration())
	require.NoError(t, err)
	return n
}

var cmOp = regexp.MustCompile(`(-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) cm`)

// matrices returns every cm operand found in content.
func matrices(t *testing.T, content []byte) [][6]float64 {
	t.Helper()
	var out [][6]float64
	for _, m := range cmOp.FindAllSubmatch(content, -1) {
		var v [6]float64
		for i := range v {
			f, err := strconv.ParseFloat(string(m[i+1]), 64)
			require.NoError(t, err)
			v[i] = f
		}
		out = append(out, v)
	}
	return out
}

// markGeometry reads the translation of the mark on page 1 and the size the
// mark image is drawn at inside its form.
func markGeometry(t *testing.T, doc []byte) (x, y, w, h float64) {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(doc), newConfiguration())
	require.NoError(t, err)

	page, _, _, err := ctx.PageDict(1, false)
	require.NoError(t, err)
	content, err := ctx.PageContent(page)
	require.NoError(t, err)

	var found bool
	for _, m := range matrices(t, content) {
		if m[0] == 1 && m[3] == 1 && m[1] == 0 && m[2] == 0 {
			x, y, found = m[4], m[5], true
		}
	}
	require.True(t, found, "no mark translation in page content: %s", content)

	found = false
	for _, e := range ctx.Table {
		if e == nil || e.Free || e.Object == nil {
			continue
		}
		sd, ok := e.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if err := sd.Decode(); err != nil || !bytes.Contains(sd.Content, []byte("/Im0 Do")) {
			continue
		}
		for _, m := range matrices(t, sd.Content) {
			if m[1] == 0 && m[2] == 0 && m[4] == 0 && m[5] == 0 {
				w, h, found = m[0], m[3], true
			}
		}
	}
	require.True(t, found, "no mark image form")
	return x, y, w, h
}

func TestStamp_Placement(t *testing.T) {
	tests := []struct {
		name         string
		page         stamptest.Page
		markW, markH int
		wantX, wantY float64
		wantW, wantH float64
	}{
		{name: "letter", page: stamptest.Letter, markW: 500, markH: 250, wantX: 462, wantY: 50, wantW: 100, wantH: 50},
		{name: "wide page", page: stamptest.Page{Width: 1000, Height: 400}, markW: 500, markH: 250, wantX: 850, wantY: 50, wantW: 100, wantH: 50},
		{name: "a4 landscape", page: stamptest.Page{Width: 842, Height: 595}, markW: 400, markH: 200, wantX: 712, wantY: 50, wantW: 80, wantH: 40},
		// Not clamped: the mark runs off the left edge.
		{name: "page smaller than mark plus margin", page: stamptest.Page{Width: 60, Height: 40}, markW: 400, markH: 200, wantX: -70, wantY: 50, wantW: 80, wantH: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Stamp(stamptest.PDF(tt.page), stamptest.Mark(tt.markW, tt.markH))
			require.NoError(t, err)

			x, y, w, h := markGeometry(t, out)
			assert.InDelta(t, tt.wantX, x, 0.01)
			assert.InDelta(t, tt.wantY, y, 0.01)
			assert.InDelta(t, tt.wantW, w, 0.01)
			assert.InDelta(t, tt.wantH, h, 0.01)
			assert.InDelta(t, tt.page.Width-MarkMargin, x+w, 0.01, "right edge of the mark")
		})
	}
}

func TestStamp(t *testing.T) {
	mark := stamptest.Mark(400, 200)

	tests := []struct {
		name  string
		pages []stamptest.Page
	}{
		{name: "single letter page", pages: []stamptest.Page{stamptest.Letter}},
		{name: "multi page keeps page count", pages: []stamptest.Page{stamptest.Letter, stamptest.Letter, {Width: 842, Height: 595}}},
		{name: "page smaller than mark plus margin", pages: []stamptest.Page{{Width: 60, Height: 40}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := stamptest.PDF(tt.pages...)
			orig := bytes.Clone(doc)

			out, err := Stamp(doc, mark)

			require.NoError(t, err)
			assert.Equal(t, orig, doc, "input must not be mutated")
			assert.NotEqual(t, doc, out)
			assert.Equal(t, len(tt.pages), pageCount(t, out))

			marked, err := api.HasWatermarks(bytes.NewReader(out), newConfiguration())
			require.NoError(t, err)
			assert.True(t, marked)
		})
	}
}

func TestStamp_MalformedDocument(t *testing.T) {
	mark := stamptest.Mark(10, 10)

	tests := []struct {
		name string
		doc  []byte
	}{
		{name: "zero pages", doc: stamptest.PDF()},
		{name: "not a pdf", doc: []byte("hello, this is plain text")},
		{name: "empty", doc: nil},
		{name: "truncated", doc: stamptest.PDF(stamptest.Letter)[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Stamp(tt.doc, mark)

			assert.ErrorIs(t, err, ErrMalformedDocument)
			assert.Nil(t, out)
		})
	}
}

func TestStamp_MarkMissing(t *testing.T) {
	doc := stamptest.PDF(stamptest.Letter)

	_, err := Stamp(doc, nil)
	assert.ErrorIs(t, err, ErrMarkAssetMissing)

	_, err = Stamp(doc, []byte("not an image"))
	assert.ErrorIs(t, err, ErrMarkAssetMissing)
}

func TestEngine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	markPath := filepath.Join(dir, "logo.png")
	doc := stamptest.PDF(stamptest.Letter)

	t.Run("missing asset", func(t *testing.T) {
		e := NewEngine(markPath)

		assert.ErrorIs(t, e.CheckMark(), ErrMarkAssetMissing)
		_, err := e.Stamp(ctx, doc)
		assert.ErrorIs(t, err, ErrMarkAssetMissing)
	})

	t.Run("no path configured", func(t *testing.T) {
		_, err := NewEngine("").Stamp(ctx, doc)
		assert.ErrorIs(t, err, ErrMarkAssetMissing)
	})

	t.Run("undecodable asset", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.png")
		require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

		assert.ErrorIs(t, NewEngine(bad).CheckMark(), ErrMarkAssetMissing)
	})

	t.Run("asset present", func(t *testing.T) {
		require.NoError(t, os.WriteFile(markPath, stamptest.Mark(120, 60), 0o644))
		e := NewEngine(markPath)

		require.NoError(t, e.CheckMark())
		out, err := e.Stamp(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, 1, pageCount(t, out))
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewEngine(markPath).Stamp(cctx, doc)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
