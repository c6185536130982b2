package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"partylodge/internal/app/policies"
)

// AvatarStore validates occupancy avatar uploads and hands them to the
// uploader. Only JPEG and PNG pass the sniff; everything else is rejected
// before any byte reaches the bucket.
type AvatarStore struct {
	Uploader Uploader
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

func (s *AvatarStore) Store(ctx context.Context, occupancyID string, creatorID string, image io.Reader) (string, error) {
	if s.Uploader == nil {
		return "", errors.New("s3: avatar store missing uploader")
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(image, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := extensions[contentType]
	if !ok {
		return "", policies.ErrUnsupportedImageType
	}
	body := io.MultiReader(bytes.NewReader(head), image)
	key := "avatars/" + occupancyID + "/" + uuid.NewString() + ext
	return s.Uploader.Upload(ctx, key, body, contentType)
}

var _ policies.AvatarPort = (*AvatarStore)(nil)
