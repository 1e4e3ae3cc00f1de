package main

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/wudi/nitfkit/ir/raw"
	"github.com/wudi/nitfkit/observability"
	"github.com/wudi/nitfkit/parser"
)

func loadImage(path string) (image.Image, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	img, format, err := image.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%s: empty %s image", path, format)
	}
	return img, nil
}

// paint copies src into dst, resampling when the sizes differ.
func paint(dst draw.Image, src image.Image) {
	if dst.Bounds().Size() == src.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
}

// planes renders src at cols x rows and splits it into one plane per band:
// luminance for one band, red, green and blue for three.
func planes(src image.Image, cols, rows, bands int) ([][]byte, error) {
	r := image.Rect(0, 0, cols, rows)
	switch bands {
	case 1:
		dst := image.NewGray(r)
		paint(dst, src)
		return [][]byte{dst.Pix}, nil
	case 3:
		dst := image.NewRGBA(r)
		paint(dst, src)
		out := [][]byte{make([]byte, cols*rows), make([]byte, cols*rows), make([]byte, cols*rows)}
		for i := range cols * rows {
			for b := range out {
				out[b][i] = dst.Pix[4*i+b]
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot fill %d bands from an image, use 1 or 3", bands)
}

// layout arranges band planes into the block order of img. Blocks past
// the image edge are zero padded.
func layout(bands [][]byte, img *raw.Image) ([]byte, error) {
	if !strings.EqualFold(img.IC, "NC") {
		return nil, fmt.Errorf("cannot fill compressed image (IC=%s)", img.IC)
	}
	if img.NBPP != 8 {
		return nil, fmt.Errorf("cannot fill %d bit samples", img.NBPP)
	}
	if len(bands) != len(img.Bands) {
		return nil, fmt.Errorf("image has %d bands, got %d", len(img.Bands), len(bands))
	}
	bw, bh := img.NPPBH, img.NPPBV
	if bw == 0 {
		bw = img.Cols
	}
	if bh == 0 {
		bh = img.Rows
	}
	blockSize := bw * bh
	out := make([]byte, 0, img.NBPR*img.NBPC*blockSize*len(bands))

	block := func(plane []byte, bx, by int) {
		for y := range bh {
			row := make([]byte, bw)
			if line := by*bh + y; line < img.Rows {
				start := line*img.Cols + bx*bw
				end := min(start+bw, (line+1)*img.Cols)
				if start < end {
					copy(row, plane[start:end])
				}
			}
			out = append(out, row...)
		}
	}

	switch {
	case len(bands) == 1, strings.EqualFold(img.IMODE, "B"):
		for by := range img.NBPC {
			for bx := range img.NBPR {
				for _, p := range bands {
					block(p, bx, by)
				}
			}
		}
	case strings.EqualFold(img.IMODE, "S"):
		for _, p := range bands {
			for by := range img.NBPC {
				for bx := range img.NBPR {
					block(p, bx, by)
				}
			}
		}
	default:
		return nil, fmt.Errorf("cannot fill IMODE %s", img.IMODE)
	}
	return out, nil
}

// fillImage writes src into the pixel data of image segment index of the
// file at path.
func fillImage(ctx context.Context, path string, index int, src image.Image, logger observability.Logger) error {
	f, err := parser.Open(ctx, path, parser.Config{Logger: logger})
	if err != nil {
		return err
	}
	defer f.Close()
	img, err := f.ImageAccess(index)
	if err != nil {
		return err
	}
	bands, err := planes(src, img.Cols, img.Rows, len(img.Bands))
	if err != nil {
		return err
	}
	data, err := layout(bands, img)
	if err != nil {
		return err
	}
	if uint64(len(data)) != img.Segment.DataSize {
		return fmt.Errorf("image segment %d holds %d bytes, laid out %d", index, img.Segment.DataSize, len(data))
	}

	out, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := out.WriteAt(data, int64(img.Segment.DataStart)); err != nil {
		out.Close()
		return fmt.Errorf("write pixels: %w", err)
	}
	logger.Debug("filled image segment",
		observability.Int("index", index),
		observability.Int("bytes", len(data)))
	return out.Close()
}
