package mood

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"adforge/internal/domain"
	"adforge/internal/providers/genai"
	"adforge/internal/storage"
)

var fixedTime = time.Date(2025, 1, 11, 14, 30, 22, 0, time.UTC)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.vals) {
			break
		}
		switch v := d.(type) {
		case *string:
			*v = r.vals[i].(string)
		case *time.Time:
			*v = r.vals[i].(time.Time)
		}
	}
	return nil
}

type stubSQL struct {
	campaignName string
	noCampaign   bool
	insertArgs   [][]any
	nextID       int
}

func (s *stubSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *stubSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected Query: %s", query)
}

func (s *stubSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	switch {
	case strings.Contains(query, "select name"):
		if s.noCampaign {
			return fakeRow{err: pgx.ErrNoRows}
		}
		return fakeRow{vals: []any{s.campaignName}}
	case strings.Contains(query, "insert into mood_media"):
		s.insertArgs = append(s.insertArgs, args)
		s.nextID++
		return fakeRow{vals: []any{fmt.Sprintf("mood-%d", s.nextID), fixedTime}}
	default:
		return fakeRow{err: fmt.Errorf("unexpected QueryRow: %s", query)}
	}
}

type fakeGen struct {
	mu        sync.Mutex
	imageReqs []genai.ImageRequest
	videoReqs []genai.VideoRequest
	imageErr  map[string]error
	videoErr  error
}

func (f *fakeGen) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error) {
	f.mu.Lock()
	f.imageReqs = append(f.imageReqs, req)
	f.mu.Unlock()
	if err := f.imageErr[req.AspectRatio]; err != nil {
		return nil, err
	}
	size := domain.CanvasFor(req.AspectRatio)
	w, h := size.Width/10, size.Height/10
	return &genai.ImageAsset{Data: mustPNG(w, h, color.NRGBA{R: 40, G: 90, B: 200, A: 255}), MIME: "image/png", Width: w, Height: h}, nil
}

func (f *fakeGen) GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.VideoAsset, error) {
	f.mu.Lock()
	f.videoReqs = append(f.videoReqs, req)
	f.mu.Unlock()
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	return &genai.VideoAsset{Data: []byte("stub-mp4-bytes"), MIME: "video/mp4"}, nil
}

func (f *fakeGen) ImageModelName() string { return "stub-image-model" }

func (f *fakeGen) VideoModelName() string { return "stub-video-model" }

func (f *fakeGen) imageCalls() []genai.ImageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]genai.ImageRequest(nil), f.imageReqs...)
}

func mustPNG(w, h int, c color.NRGBA) []byte {
	img := imaging.New(w, h, c)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func newService(t *testing.T) (*Service, *stubSQL, *fakeGen, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	sql := &stubSQL{campaignName: "Eco-Friendly Product Launch 2025"}
	gen := &fakeGen{}
	svc := NewService(sql, store, gen, zerolog.Nop())
	svc.now = func() time.Time { return fixedTime }
	return svc, sql, gen, store
}

func writeMedia(t *testing.T, store *storage.FileStore, key string, data []byte) string {
	t.Helper()
	if _, err := store.Write(context.Background(), key, data); err != nil {
		t.Fatalf("write %s: %v", key, err)
	}
	return "/static/" + key
}

func TestGenerateImagesOnePerRatio(t *testing.T) {
	svc, sql, gen, store := newService(t)
	src1 := writeMedia(t, store, "media/src1.png", mustPNG(8, 8, color.NRGBA{R: 255, A: 255}))
	src2 := writeMedia(t, store, "media/src2.png", mustPNG(8, 8, color.NRGBA{G: 255, A: 255}))

	results, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID:   "camp-1",
		Prompt:       "Forest calm, soft morning light",
		SourceImages: []string{src1, src2},
		Ratios:       []string{"1:1", "9:16"},
		RequestID:    "req-1",
	})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	wantPaths := []string{
		"/static/moods/Eco-Friendly_Product_img_20250111_143022_1-1.png",
		"/static/moods/Eco-Friendly_Product_img_20250111_143022_9-16.png",
	}
	for i, want := range wantPaths {
		if results[i].FilePath != want {
			t.Errorf("results[%d].FilePath = %q, want %q", i, results[i].FilePath, want)
		}
		if results[i].ID != fmt.Sprintf("mood-%d", i+1) {
			t.Errorf("results[%d].ID = %q", i, results[i].ID)
		}
		if results[i].MediaType != domain.MoodMediaImage || !results[i].IsGenerated {
			t.Errorf("results[%d] type/generated = %v/%v", i, results[i].MediaType, results[i].IsGenerated)
		}
		key := strings.TrimPrefix(want, "/static/")
		if _, err := store.Read(key); err != nil {
			t.Errorf("stored file %s unreadable: %v", key, err)
		}
	}
	if results[0].AspectRatio != "1:1" || results[1].AspectRatio != "9:16" {
		t.Errorf("aspect ratios = %q, %q", results[0].AspectRatio, results[1].AspectRatio)
	}

	if len(sql.insertArgs) != 2 {
		t.Fatalf("inserts = %d, want 2", len(sql.insertArgs))
	}
	first := sql.insertArgs[0]
	if first[0] != "camp-1" || first[2] != "image" || first[3] != true {
		t.Errorf("insert args = %v", first)
	}
	if first[4] != "Forest calm, soft morning light" {
		t.Errorf("stored prompt = %v", first[4])
	}
	wantRefs := fmt.Sprintf("[%q,%q]", src1, src2)
	if first[5] != wantRefs {
		t.Errorf("stored source refs = %v, want %s", first[5], wantRefs)
	}
	if first[7] != `{"model":"stub-image-model"}` {
		t.Errorf("stored metadata = %v", first[7])
	}

	calls := gen.imageCalls()
	if len(calls) != 2 {
		t.Fatalf("image calls = %d, want 2", len(calls))
	}
	seen := map[string]bool{}
	for _, call := range calls {
		seen[call.AspectRatio] = true
		if len(call.Sources) != 2 {
			t.Errorf("call %s sources = %d, want 2", call.AspectRatio, len(call.Sources))
		}
		if !strings.Contains(call.Prompt, "NO TEXT") {
			t.Errorf("prompt is missing the no-text rule: %q", call.Prompt)
		}
		if !strings.Contains(call.Prompt, "Forest calm, soft morning light") {
			t.Errorf("prompt is missing the creative direction")
		}
	}
	if !seen["1:1"] || !seen["9:16"] {
		t.Errorf("generated ratios = %v", seen)
	}
}

func TestGenerateImagesValidatesRatios(t *testing.T) {
	tests := []struct {
		name   string
		ratios []string
	}{
		{name: "empty", ratios: nil},
		{name: "too many", ratios: []string{"1:1", "3:4", "4:3", "16:9"}},
		{name: "unknown token", ratios: []string{"2:3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sql, gen, _ := newService(t)
			_, err := svc.GenerateImages(context.Background(), ImagesRequest{
				CampaignID: "camp-1",
				Prompt:     "anything",
				Ratios:     tt.ratios,
			})
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if len(gen.imageCalls()) != 0 || len(sql.insertArgs) != 0 {
				t.Errorf("side effects after validation failure")
			}
		})
	}
}

func TestGenerateImagesSkipsUnreadableSource(t *testing.T) {
	svc, _, gen, store := newService(t)
	src := writeMedia(t, store, "media/real.png", mustPNG(8, 8, color.NRGBA{B: 255, A: 255}))

	_, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID:   "camp-1",
		Prompt:       "beach sunset",
		SourceImages: []string{src, "/static/media/gone.png"},
		Ratios:       []string{"4:3"},
	})
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	calls := gen.imageCalls()
	if len(calls) != 1 || len(calls[0].Sources) != 1 {
		t.Fatalf("expected one call with the surviving source, got %+v", calls)
	}
}

func TestGenerateImagesFailsWhenNoSourceLoads(t *testing.T) {
	svc, sql, gen, _ := newService(t)
	_, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID:   "camp-1",
		Prompt:       "beach sunset",
		SourceImages: []string{"/static/media/gone.png"},
		Ratios:       []string{"1:1"},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "could not load any") {
		t.Errorf("err = %v", err)
	}
	if len(gen.imageCalls()) != 0 || len(sql.insertArgs) != 0 {
		t.Errorf("side effects after source failure")
	}
}

func TestGenerateImagesEnforcesSizeBudget(t *testing.T) {
	svc, _, gen, store := newService(t)
	big := writeMedia(t, store, "media/huge.bin", make([]byte, sourceBudgetBytes+1))

	_, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID:   "camp-1",
		Prompt:       "big",
		SourceImages: []string{big},
		Ratios:       []string{"1:1"},
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "17MB") {
		t.Errorf("err = %v", err)
	}
	if len(gen.imageCalls()) != 0 {
		t.Errorf("model called despite oversized sources")
	}
}

func TestGenerateImagesUnknownCampaign(t *testing.T) {
	svc, sql, gen, _ := newService(t)
	sql.noCampaign = true

	_, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID: "nope",
		Prompt:     "x",
		Ratios:     []string{"1:1"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(gen.imageCalls()) != 0 {
		t.Errorf("model called for unknown campaign")
	}
}

func TestGenerateImagesModelFailureInsertsNothing(t *testing.T) {
	svc, sql, gen, _ := newService(t)
	gen.imageErr = map[string]error{"9:16": fmt.Errorf("%w: model overloaded", domain.ErrProviderFailure)}

	_, err := svc.GenerateImages(context.Background(), ImagesRequest{
		CampaignID: "camp-1",
		Prompt:     "x",
		Ratios:     []string{"1:1", "9:16"},
	})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want ErrProviderFailure", err)
	}
	if len(sql.insertArgs) != 0 {
		t.Errorf("rows inserted despite a failed ratio")
	}
}

func TestGenerateVideoFlattensReferenceAndStoresClip(t *testing.T) {
	svc, sql, gen, store := newService(t)

	// Left half opaque red, right half fully transparent.
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode reference: %v", err)
	}
	ref := writeMedia(t, store, "media/ref.png", buf.Bytes())

	media, err := svc.GenerateVideo(context.Background(), VideoRequest{
		CampaignID:      "camp-1",
		Prompt:          "waves rolling in at dusk",
		SourceImages:    []string{ref},
		AspectRatio:     "16:9",
		DurationSeconds: 6,
		RequestID:       "req-9",
	})
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}

	if media.FilePath != "/static/moods/Eco-Friendly_Product_vid_20250111_143022_16-9.mp4" {
		t.Errorf("FilePath = %q", media.FilePath)
	}
	if media.MediaType != domain.MoodMediaVideo || media.AspectRatio != "16:9" {
		t.Errorf("media = %+v", media)
	}
	stored, err := store.Read("moods/Eco-Friendly_Product_vid_20250111_143022_16-9.mp4")
	if err != nil || string(stored) != "stub-mp4-bytes" {
		t.Errorf("stored clip = %q, err %v", stored, err)
	}

	if len(gen.videoReqs) != 1 {
		t.Fatalf("video calls = %d, want 1", len(gen.videoReqs))
	}
	call := gen.videoReqs[0]
	if call.AspectRatio != "16:9" || call.DurationSeconds != 6 {
		t.Errorf("call params = %s/%ds", call.AspectRatio, call.DurationSeconds)
	}
	for _, want := range []string{"NO TEXT", "waves rolling in at dusk", "TECHNICAL SPECIFICATIONS", "- Duration: 6 seconds"} {
		if !strings.Contains(call.Prompt, want) {
			t.Errorf("video prompt is missing %q", want)
		}
	}
	if call.Reference == nil {
		t.Fatal("reference frame not attached")
	}
	flat, err := imaging.Decode(bytes.NewReader(call.Reference.Data))
	if err != nil {
		t.Fatalf("decode flattened reference: %v", err)
	}
	left := color.NRGBAModel.Convert(flat.At(0, 1)).(color.NRGBA)
	right := color.NRGBAModel.Convert(flat.At(3, 1)).(color.NRGBA)
	if left.R < 200 || left.G > 50 {
		t.Errorf("opaque region = %+v, want red", left)
	}
	if right.R < 250 || right.G < 250 || right.B < 250 {
		t.Errorf("transparent region = %+v, want white", right)
	}

	if len(sql.insertArgs) != 1 {
		t.Fatalf("inserts = %d, want 1", len(sql.insertArgs))
	}
	args := sql.insertArgs[0]
	if args[2] != "video" || args[7] != `{"duration":6,"model":"stub-video-model"}` {
		t.Errorf("insert args = %v", args)
	}
}

func TestGenerateVideoValidatesParams(t *testing.T) {
	tests := []struct {
		name string
		req  VideoRequest
	}{
		{
			name: "square ratio rejected",
			req:  VideoRequest{CampaignID: "camp-1", AspectRatio: "1:1", DurationSeconds: 6},
		},
		{
			name: "odd duration rejected",
			req:  VideoRequest{CampaignID: "camp-1", AspectRatio: "16:9", DurationSeconds: 5},
		},
		{
			name: "too many sources",
			req: VideoRequest{
				CampaignID:      "camp-1",
				AspectRatio:     "9:16",
				DurationSeconds: 4,
				SourceImages:    []string{"a", "b", "c", "d"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, gen, _ := newService(t)
			_, err := svc.GenerateVideo(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			if len(gen.videoReqs) != 0 {
				t.Errorf("model called despite invalid params")
			}
		})
	}
}

func TestGenerateVideoMissingReference(t *testing.T) {
	svc, _, gen, _ := newService(t)
	_, err := svc.GenerateVideo(context.Background(), VideoRequest{
		CampaignID:      "camp-1",
		Prompt:          "x",
		SourceImages:    []string{"/static/media/gone.png"},
		AspectRatio:     "16:9",
		DurationSeconds: 4,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "/static/media/gone.png") {
		t.Errorf("err = %v", err)
	}
	if len(gen.videoReqs) != 0 {
		t.Errorf("model called despite missing reference")
	}
}
