package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/catalogops/priced-catalog-service/internal/domain"
)

func newAssetStoreForTest(t *testing.T) *MinIOAssetStore {
	t.Helper()
	store, err := NewMinIOAssetStore(
		"localhost:9000", "test", "test",
		"catalog-images",
		"http://localhost:9000/",
		"http://localhost:8080/static/img/product-placeholder.jpg",
		false,
	)
	if err != nil {
		t.Fatalf("new asset store: %v", err)
	}
	return store
}

func TestPutRejectsOversizedImage(t *testing.T) {
	store := newAssetStoreForTest(t)
	_, err := store.Put(context.Background(), strings.NewReader("x"), maxImageSize+1)
	if !errors.Is(err, ErrAssetTooLarge) {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
}

func TestPutRejectsNonImageContent(t *testing.T) {
	store := newAssetStoreForTest(t)
	_, err := store.Put(context.Background(), strings.NewReader("plain text, not an image"), 24)
	if !errors.Is(err, ErrAssetInvalidType) {
		t.Fatalf("expected ErrAssetInvalidType, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	store := newAssetStoreForTest(t)

	placeholder := "http://localhost:8080/static/img/product-placeholder.jpg"
	if got := store.ResolveURL(domain.DefaultImage); got != placeholder {
		t.Fatalf("sentinel must resolve to placeholder, got %q", got)
	}
	if got := store.ResolveURL(""); got != placeholder {
		t.Fatalf("empty name must resolve to placeholder, got %q", got)
	}
	want := "http://localhost:9000/catalog-images/products/abc.jpg"
	if got := store.ResolveURL("products/abc.jpg"); got != want {
		t.Fatalf("unexpected URL: got %q want %q", got, want)
	}
}

func TestDeleteValidation(t *testing.T) {
	store := newAssetStoreForTest(t)

	if err := store.Delete(context.Background(), ""); err != nil {
		t.Fatalf("empty name must be a no-op, got %v", err)
	}
	if err := store.Delete(context.Background(), "products/../secrets"); !errors.Is(err, ErrAssetDeleteFailed) {
		t.Fatalf("expected ErrAssetDeleteFailed for traversal, got %v", err)
	}
}
