package memory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"partylodge/internal/app/policies"
)

// The smallest payloads that http.DetectContentType classifies as images.
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0}
)

func TestAvatarStoreAcceptsImages(t *testing.T) {
	ctx := context.Background()
	store := NewAvatarStore()

	for name, payload := range map[string][]byte{"png": pngHeader, "jpeg": jpegHeader} {
		ref, err := store.Store(ctx, "occ-1", "user-1", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("%s: store: %v", name, err)
		}
		if !strings.HasPrefix(ref, "memory://avatars/occ-1/") {
			t.Fatalf("%s: unexpected ref %q", name, ref)
		}
		data, err := store.Load(ref)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if !bytes.Equal(data, payload) {
			t.Fatalf("%s: stored blob differs", name)
		}
	}
}

func TestAvatarStoreRejectsNonImages(t *testing.T) {
	store := NewAvatarStore()

	_, err := store.Store(context.Background(), "occ-1", "user-1", strings.NewReader("GIF89a not allowed"))
	if !errors.Is(err, policies.ErrUnsupportedImageType) {
		t.Fatalf("expected ErrUnsupportedImageType, got %v", err)
	}
	_, err = store.Store(context.Background(), "occ-1", "user-1", strings.NewReader("plain text"))
	if !errors.Is(err, policies.ErrUnsupportedImageType) {
		t.Fatalf("expected ErrUnsupportedImageType for text, got %v", err)
	}
}

func TestAvatarStoreDistinctRefs(t *testing.T) {
	ctx := context.Background()
	store := NewAvatarStore()

	first, err := store.Store(ctx, "occ-1", "user-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("first store: %v", err)
	}
	second, err := store.Store(ctx, "occ-1", "user-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("second store: %v", err)
	}
	if first == second {
		t.Fatal("each upload must get its own ref")
	}
}
