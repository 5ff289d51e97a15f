package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // mark decoders
	_ "image/png"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	// ErrMalformedDocument is returned when the input cannot be parsed as a PDF or has no pages.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrMarkAssetMissing is returned when the approval mark image is absent or unreadable.
	ErrMarkAssetMissing = errors.New("approval mark asset missing")
)

const (
	// MarkScale is applied to the mark's native dimensions.
	MarkScale = 0.2
	// MarkMargin is the distance in points from the right and bottom page edges.
	MarkMargin = 50.0
)

func init() {
	// pdfcpu otherwise creates a config and font directory under the user's home.
	api.DisableConfigDir()
}

// Placement is the pdfcpu watermark description for the approval mark: anchored
// bottom-right, offset inward by MarkMargin, scaled relative to the mark itself.
// Pages smaller than the scaled mark plus margin show it overflowing; that is not corrected.
func Placement() string {
	return fmt.Sprintf("pos:br, off:-%g %g, scalefactor:%g abs, rot:0, op:1", MarkMargin, MarkMargin, MarkScale)
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Stamp composites mark onto the first page of doc and returns the re-serialized PDF.
// doc is only read; the result is a fresh byte slice.
func Stamp(doc, mark []byte) ([]byte, error) {
	if len(mark) == 0 {
		return nil, ErrMarkAssetMissing
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(mark)); err != nil {
		return nil, fmt.Errorf("%w: decode mark: %v", ErrMarkAssetMissing, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}

	conf := newConfiguration()
	pages, err := api.PageCount(bytes.NewReader(doc), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if pages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrMalformedDocument)
	}

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(mark), Placement(), true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("build mark: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &out, []string{"1"}, wm, newConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: apply mark: %v", ErrMalformedDocument, err)
	}
	return out.Bytes(), nil
}

// Engine stamps documents with the mark image found at a fixed path.
type Engine struct {
	markPath string
}

// NewEngine returns an Engine reading its mark from markPath. No I/O happens until use.
func NewEngine(markPath string) *Engine {
	return &Engine{markPath: markPath}
}

// CheckMark reports whether the mark asset is currently readable and decodable.
func (e *Engine) CheckMark() error {
	mark, err := e.loadMark()
	if err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(mark)); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrMarkAssetMissing, e.markPath, err)
	}
	return nil
}

// Stamp loads the mark and applies it to doc. The mark is re-read on every call.
func (e *Engine) Stamp(ctx context.Context, doc []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mark, err := e.loadMark()
	if err != nil {
		return nil, err
	}
	return Stamp(doc, mark)
}

func (e *Engine) loadMark() ([]byte, error) {
	if e.markPath == "" {
		return nil, fmt.Errorf("%w: no mark path configured", ErrMarkAssetMissing)
	}
	mark, err := os.ReadFile(e.markPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMarkAssetMissing, e.markPath, err)
	}
	return mark, nil
}
