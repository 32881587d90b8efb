package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"adforge/internal/domain"
	"adforge/internal/infra"
	"adforge/internal/storage"
)

const maxUploadBytes int64 = 32 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// MediaUpload stores one image from a multipart form under the media root and
// returns its public ref.
func (a *App) MediaUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	ref, err := a.storeUpload(r.Context(), file, header.Filename)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{
		"file_path": ref,
		"message":   "file uploaded",
	})
}

// MediaUploadMultiple stores a batch of images, reporting per-file failures
// without failing the batch.
func (a *App) MediaUploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "multipart field \"files\" is required")
		return
	}

	paths := []string{}
	failures := []string{}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			failures = append(failures, fmt.Sprintf("failed to read %s", header.Filename))
			continue
		}
		ref, err := a.storeUpload(r.Context(), file, header.Filename)
		file.Close()
		if err != nil {
			failures = append(failures, fmt.Sprintf("failed to upload %s: %v", header.Filename, err))
			continue
		}
		paths = append(paths, ref)
	}

	a.json(w, http.StatusOK, map[string]any{
		"file_paths":     paths,
		"errors":         failures,
		"total_uploaded": len(paths),
		"total_failed":   len(failures),
	})
}

// storeUpload validates the extension allow-list and writes the payload as
// media/upload_<uuid><ext>, returning the public ref.
func (a *App) storeUpload(ctx context.Context, src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("%w: file type %q is not allowed", domain.ErrInvalidInput, ext)
	}
	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxUploadBytes {
		return "", fmt.Errorf("%w: upload exceeds %dMB", domain.ErrInvalidInput, maxUploadBytes>>20)
	}

	key := path.Join(infra.MediaDir, "upload_"+uuid.NewString()+ext)
	if _, err := a.Store.Write(ctx, key, data); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return storage.StaticRef(key), nil
}

// processImageRef normalizes one incoming image reference: http(s) URLs are
// fetched into local media storage, anything else passes through untouched.
// A failed download keeps the original ref; bad refs surface later, at
// generation time, where missing sources are a hard error.
func (a *App) processImageRef(ctx context.Context, ref string) string {
	trimmed := strings.TrimSpace(ref)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	local, err := a.downloadImage(ctx, trimmed)
	if err != nil {
		a.Logger.Warn().Err(err).Str("url", trimmed).Msg("http: image download failed, keeping original ref")
		return trimmed
	}
	return local
}

func (a *App) processImageList(ctx context.Context, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		out = append(out, a.processImageRef(ctx, ref))
	}
	return out
}

// downloadImage fetches a remote image into media/image_<uuid><ext>. The
// extension comes from the response content type, then the URL, then ".jpg".
func (a *App) downloadImage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxUploadBytes {
		return "", fmt.Errorf("fetch %s: image exceeds %dMB", url, maxUploadBytes>>20)
	}

	ext := extFromContentType(resp.Header.Get("Content-Type"))
	if ext == "" {
		ext = extFromURL(url)
	}
	if ext == "" {
		ext = ".jpg"
	}

	key := path.Join(infra.MediaDir, "image_"+uuid.NewString()+ext)
	if _, err := a.Store.Write(ctx, key, data); err != nil {
		return "", err
	}
	return storage.StaticRef(key), nil
}

func extFromContentType(ct string) string {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "image/jpeg"), strings.Contains(ct, "image/jpg"):
		return ".jpg"
	case strings.Contains(ct, "image/png"):
		return ".png"
	case strings.Contains(ct, "image/gif"):
		return ".gif"
	case strings.Contains(ct, "image/webp"):
		return ".webp"
	case strings.Contains(ct, "image/svg"):
		return ".svg"
	}
	return ""
}

func extFromURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	ext := strings.ToLower(path.Ext(url))
	if allowedImageExts[ext] {
		return ext
	}
	return ""
}
