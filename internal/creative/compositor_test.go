package creative

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"adforge/internal/storage"
)

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func pngOf(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, imaging.New(width, height, c), imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeVariant(t *testing.T, store *storage.FileStore, key string) image.Image {
	t.Helper()
	data, err := store.Read(key)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode %s: %v", key, err)
	}
	return img
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func isBlack(c color.NRGBA) bool {
	return c.R < 30 && c.G < 30 && c.B < 30
}

func isWhite(c color.NRGBA) bool {
	return c.R > 225 && c.G > 225 && c.B > 225
}

func isRed(c color.NRGBA) bool {
	return c.R > 200 && c.G < 100 && c.B < 100
}

func TestComposeWhiteCanvasWithBorder(t *testing.T) {
	store := newTestStore(t)
	comp := NewCompositor(store, zerolog.Nop())

	key, err := comp.ComposePostImage(context.Background(), ComposeParams{
		AspectRatio: "1:1",
		Creative:    nil,
		Folder:      "posts/Demo_Go_Green",
		Filename:    "image_1-1.png",
	})
	if err != nil {
		t.Fatalf("ComposePostImage: %v", err)
	}
	if key != "posts/Demo_Go_Green/image_1-1.png" {
		t.Fatalf("key = %q", key)
	}

	img := decodeVariant(t, store, key)
	if img.Bounds().Dx() != 1080 || img.Bounds().Dy() != 1080 {
		t.Fatalf("dims = %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	for _, pt := range []image.Point{{X: 0, Y: 0}, {X: 3, Y: 540}, {X: 540, Y: 1076}, {X: 1079, Y: 1079}} {
		if c := pixelAt(img, pt.X, pt.Y); !isBlack(c) {
			t.Fatalf("border pixel %v = %+v, want black", pt, c)
		}
	}
	if c := pixelAt(img, 540, 540); !isWhite(c) {
		t.Fatalf("center = %+v, want white", c)
	}
}

func TestComposeExactSizePassthrough(t *testing.T) {
	store := newTestStore(t)
	comp := NewCompositor(store, zerolog.Nop())

	blue := color.NRGBA{B: 255, A: 255}
	key, err := comp.ComposePostImage(context.Background(), ComposeParams{
		AspectRatio: "16:9",
		Creative:    &BaseCreative{Data: pngOf(t, 1920, 1080, blue), MIME: "image/png"},
		Folder:      "posts/f",
		Filename:    "image_16-9.png",
	})
	if err != nil {
		t.Fatalf("ComposePostImage: %v", err)
	}

	img := decodeVariant(t, store, key)
	if img.Bounds().Dx() != 1920 || img.Bounds().Dy() != 1080 {
		t.Fatalf("dims = %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if c := pixelAt(img, 960, 540); c.B < 225 || c.R > 30 {
		t.Fatalf("center = %+v, want blue", c)
	}
}

func TestComposeCoverCropPreservesAspect(t *testing.T) {
	store := newTestStore(t)
	comp := NewCompositor(store, zerolog.Nop())

	// A 1000x500 white creative with a 100x100 red square dead center. Cover
	// scaling to the square canvas must keep the square square; a stretch
	// would leave it twice as tall as wide.
	src := imaging.New(1000, 500, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	red := imaging.New(100, 100, color.NRGBA{R: 255, A: 255})
	src = imaging.Paste(src, red, image.Pt(450, 200))
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, src, imaging.PNG); err != nil {
		t.Fatalf("encode source: %v", err)
	}

	key, err := comp.ComposePostImage(context.Background(), ComposeParams{
		AspectRatio: "1:1",
		Creative:    &BaseCreative{Data: buf.Bytes(), MIME: "image/png"},
		Folder:      "posts/f",
		Filename:    "image_1-1.png",
	})
	if err != nil {
		t.Fatalf("ComposePostImage: %v", err)
	}

	img := decodeVariant(t, store, key)
	if img.Bounds().Dx() != 1080 || img.Bounds().Dy() != 1080 {
		t.Fatalf("dims = %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	var runW, runH int
	for x := 0; x < 1080; x++ {
		if isRed(pixelAt(img, x, 540)) {
			runW++
		}
	}
	for y := 0; y < 1080; y++ {
		if isRed(pixelAt(img, 540, y)) {
			runH++
		}
	}
	if runW < 190 || runW > 240 || runH < 190 || runH > 240 {
		t.Fatalf("red extents %dx%d outside expected scale", runW, runH)
	}
	if diff := runW - runH; diff < -8 || diff > 8 {
		t.Fatalf("red square distorted: %dx%d", runW, runH)
	}
}

func TestComposeLogoPlacement(t *testing.T) {
	tests := []struct {
		name        string
		aspectRatio string
		canvasW     int
		canvasH     int
		wantW       int // logo 300x150 fit into the ratio's bound
		wantH       int
	}{
		{name: "story uses tighter bound", aspectRatio: "9:16", canvasW: 1080, canvasH: 1920, wantW: 120, wantH: 60},
		{name: "square uses default bound", aspectRatio: "1:1", canvasW: 1080, canvasH: 1080, wantW: 150, wantH: 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			comp := NewCompositor(store, zerolog.Nop())

			key, err := comp.ComposePostImage(context.Background(), ComposeParams{
				AspectRatio: tt.aspectRatio,
				Logo:        pngOf(t, 300, 150, color.NRGBA{R: 255, A: 255}),
				Folder:      "posts/f",
				Filename:    "image.png",
			})
			if err != nil {
				t.Fatalf("ComposePostImage: %v", err)
			}

			img := decodeVariant(t, store, key)
			cx := tt.canvasW - 30 - tt.wantW/2 // horizontal middle of the placed logo
			cy := tt.canvasH - 30 - tt.wantH/2
			if c := pixelAt(img, cx, cy); !isRed(c) {
				t.Fatalf("logo center (%d,%d) = %+v, want red", cx, cy, c)
			}
			if c := pixelAt(img, tt.canvasW-30-tt.wantW-20, cy); !isWhite(c) {
				t.Fatalf("left of logo = %+v, want white", c)
			}
		})
	}
}

func TestComposeLogoAlphaBlends(t *testing.T) {
	store := newTestStore(t)
	comp := NewCompositor(store, zerolog.Nop())

	key, err := comp.ComposePostImage(context.Background(), ComposeParams{
		AspectRatio: "1:1",
		Logo:        pngOf(t, 100, 100, color.NRGBA{R: 255, A: 128}),
		Folder:      "posts/f",
		Filename:    "image.png",
	})
	if err != nil {
		t.Fatalf("ComposePostImage: %v", err)
	}

	img := decodeVariant(t, store, key)
	c := pixelAt(img, 1080-30-50, 1080-30-50)
	if c.R < 225 {
		t.Fatalf("blend lost red channel: %+v", c)
	}
	if c.G < 90 || c.G > 170 {
		t.Fatalf("half-alpha red over white should blend toward pink, got %+v", c)
	}
}

func TestComposeSkipsUndecodableLogo(t *testing.T) {
	store := newTestStore(t)
	comp := NewCompositor(store, zerolog.Nop())

	key, err := comp.ComposePostImage(context.Background(), ComposeParams{
		AspectRatio: "1:1",
		Logo:        []byte("not an image"),
		Folder:      "posts/f",
		Filename:    "image.png",
	})
	if err != nil {
		t.Fatalf("undecodable logo should not fail the variant: %v", err)
	}
	img := decodeVariant(t, store, key)
	if c := pixelAt(img, 1080-30-75, 1080-30-75); !isWhite(c) {
		t.Fatalf("canvas should stay white where the logo was skipped, got %+v", c)
	}
}
