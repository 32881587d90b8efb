package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/storage"
)

const (
	testCampaignID = "5f0c4bd2-9f30-4f9a-a9e5-880c99e01b6d"
	testProductID  = "7d4e2c1a-6a52-4f6e-9b3f-2d8de1f8b901"
	testPostID     = "9a1b3c5d-7e9f-4a2b-8c4d-6e8f0a2b4c6d"
	testMoodID     = "2b4d6f81-3c5e-4a7b-9d1f-0e2a4c6b8d0f"
)

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type sqlCall struct {
	query string
	args  []any
}

// stubSQL fakes the database. Tests wire only the statements they expect to
// run; anything else fails loudly instead of silently returning zero rows.
type stubSQL struct {
	rowFn  func(query string, args []any) pgx.Row
	rowsFn func(query string, args []any) (pgx.Rows, error)
	execFn func(query string, args []any) (pgconn.CommandTag, error)

	rowCalls  []sqlCall
	execCalls []sqlCall
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execCalls = append(s.execCalls, sqlCall{query: query, args: args})
	if s.execFn != nil {
		return s.execFn(query, args)
	}
	return pgconn.CommandTag{}, nil
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.rowCalls = append(s.rowCalls, sqlCall{query: query, args: args})
	if s.rowFn != nil {
		return s.rowFn(query, args)
	}
	return simpleRow{}
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.rowsFn != nil {
		return s.rowsFn(query, args)
	}
	return nil, fmt.Errorf("unexpected query: %s", query)
}

// rowCallsTo returns the recorded QueryRow invocations of one statement.
func (s *stubSQL) rowCallsTo(query string) []sqlCall {
	out := []sqlCall{}
	for _, c := range s.rowCalls {
		if c.query == query {
			out = append(out, c)
		}
	}
	return out
}

func newTestApp(t *testing.T, sql infra.SQLExecutor) *App {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return &App{SQL: sql, Store: store, Logger: zerolog.Nop()}
}

// withURLParam injects a chi route parameter so handlers can be called
// without mounting the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, target string, payload any) *http.Request {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	field    string
	filename string
	mime     string
	data     []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		if p.mime != "" {
			header.Set("Content-Type", p.mime)
		}
		fw, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create form file %s: %v", p.filename, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			t.Fatalf("write form file %s: %v", p.filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&l); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return l
}

// Column slices in the select order of the matching sqlinline queries.

func campaignVals(c domain.Campaign) []any {
	return []any{c.ID, c.Name, c.Message, c.CallToAction, c.TargetRegion, c.TargetAudience,
		c.BrandImages, c.StartDate, c.DurationDays, c.CreatedAt, c.UpdatedAt}
}

func productVals(p domain.Product) []any {
	return []any{p.ID, p.CampaignID, p.Name, p.Description, p.ImagePath, p.CreatedAt, p.UpdatedAt}
}

func postVals(p domain.Post) []any {
	return []any{p.ID, p.CampaignID, p.ProductID, p.MoodID, p.SourceImages,
		p.Headline, p.BodyText, p.Caption, p.TextColor,
		p.Image1x1, p.Image16x9, p.Image9x16,
		p.GenerationPrompt, p.ImageFolder, p.CreatedAt}
}

func moodVals(m domain.MoodMedia) []any {
	return []any{m.ID, m.CampaignID, m.FilePath, string(m.MediaType), m.IsGenerated,
		m.Prompt, m.SourceImages, m.AspectRatio, m.GenerationMetadata, m.CreatedAt}
}

func scheduledVals(sp domain.ScheduledPost) []any {
	return []any{sp.ID, sp.PostID, sp.Platforms, sp.PostText, sp.MediaURL,
		string(sp.ScheduleType), sp.ScheduledAt, sp.RecurrenceDays, sp.RecurrenceTime,
		string(sp.Status), sp.ExternalRef, sp.LastError, sp.CreatedAt, sp.UpdatedAt}
}
