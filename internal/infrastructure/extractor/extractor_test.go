package extractor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/score-labs/score-backend/internal/core/domain"
)

type storageFake struct {
	files map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.files[key]
	if !ok {
		return nil, errors.New("not staged: " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

func TestDispatcherExtractsPlaintext(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"k1": []byte("  lecture notes on paging\n"),
	}}
	dispatcher := NewDispatcher(storage)

	text, err := dispatcher.Extract(context.Background(), "k1", "notes.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "lecture notes on paging" {
		t.Fatalf("text = %q", text)
	}
}

func TestDispatcherMarkdownGoesThroughPlaintext(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"k1": []byte("# Scheduling"),
	}}
	dispatcher := NewDispatcher(storage)

	text, err := dispatcher.Extract(context.Background(), "k1", "syllabus.md")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "# Scheduling" {
		t.Fatalf("text = %q", text)
	}
}

func TestDispatcherRejectsUnsupportedExtension(t *testing.T) {
	dispatcher := NewDispatcher(&storageFake{})

	_, err := dispatcher.Extract(context.Background(), "k1", "lecture.mp4")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}

func TestDispatcherRejectsBinaryAsText(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"k1": {0xff, 0xfe, 0x00, 0x01},
	}}
	dispatcher := NewDispatcher(storage)

	if _, err := dispatcher.Extract(context.Background(), "k1", "weird.txt"); err == nil {
		t.Fatalf("expected error for invalid utf-8")
	}
}

func TestDispatcherMissingStagedFile(t *testing.T) {
	dispatcher := NewDispatcher(&storageFake{})
	if _, err := dispatcher.Extract(context.Background(), "gone", "notes.txt"); err == nil {
		t.Fatalf("expected error for missing staged file")
	}
}
