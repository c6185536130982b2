package policies

import (
	"context"
	"errors"
	"io"
)

var (
	ErrUnsupportedImageType = errors.New("policies: unsupported image type")
	ErrAvatarAlreadyExists  = errors.New("policies: avatar object already exists")
)

// AvatarPort validates and stores occupancy avatar images outside the write
// transaction, returning the reference recorded on the occupancy. Validation
// and thumbnailing failures surface unchanged; no ledger mutation happens.
type AvatarPort interface {
	Store(ctx context.Context, occupancyID string, creatorID string, image io.Reader) (avatarRef string, err error)
}
