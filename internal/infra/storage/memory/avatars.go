package memory

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"partylodge/internal/app/policies"
)

// AvatarStore keeps avatar images in memory, applying the same type sniffing
// as the S3-backed store so demo mode rejects the same uploads.
type AvatarStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewAvatarStore() *AvatarStore {
	return &AvatarStore{blobs: make(map[string][]byte)}
}

func (s *AvatarStore) Store(ctx context.Context, occupancyID string, creatorID string, image io.Reader) (string, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return "", err
	}
	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", policies.ErrUnsupportedImageType
	}
	ref := "memory://avatars/" + occupancyID + "/" + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = data
	return ref, nil
}

// Load returns a stored blob, for tests.
func (s *AvatarStore) Load(ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[ref]
	if !ok {
		return nil, errors.New("memory: avatar not found")
	}
	return data, nil
}

var _ policies.AvatarPort = (*AvatarStore)(nil)
