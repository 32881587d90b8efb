package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "posts/demo/image_1-1.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "posts/demo/image_1-1.png" {
		t.Fatalf("key = %q", key)
	}
	data, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}
	if !store.Exists(key) {
		t.Fatalf("Exists = false after write")
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "../escape.png", []byte("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}

func TestRemoveDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "posts/old_folder/a.png", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.RemoveDir("posts/old_folder"); err != nil {
		t.Fatalf("RemoveDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "posts", "old_folder")); !os.IsNotExist(err) {
		t.Fatalf("folder still present after RemoveDir")
	}
	if err := store.RemoveDir("posts/never_existed"); err != nil {
		t.Fatalf("RemoveDir on missing folder: %v", err)
	}
}

func TestKeyFromURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	cases := []struct {
		name string
		ref  string
		want string
	}{
		{name: "full url", ref: "http://localhost:8080/static/media/upload_1.png", want: "media/upload_1.png"},
		{name: "server relative", ref: "/static/media/upload_1.png", want: "media/upload_1.png"},
		{name: "bare key", ref: "media/upload_1.png", want: "media/upload_1.png"},
		{name: "traversal", ref: "/static/../../etc/passwd", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := store.KeyFromURL(tc.ref); got != tc.want {
				t.Fatalf("KeyFromURL(%q) = %q, want %q", tc.ref, got, tc.want)
			}
		})
	}
}

func TestURL(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if got := store.URL("media/a.png"); got != "http://localhost:8080/static/media/a.png" {
		t.Fatalf("URL = %q", got)
	}
}
