package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"allie-backend/internal/shared/util"
)

// ErrNotFound is returned when a storage key does not resolve to an object.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a stored blob.
type Object struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
// Keys are namespaced by an owner (a family id) so one household never lists
// or overwrites another's files.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Stat(ctx context.Context, storageKey string) (Object, error)
	Delete(ctx context.Context, storageKey string) error
}

// OwnerPrefix returns the key prefix under which an owner's objects live,
// ending in a slash. prefix may be empty.
func OwnerPrefix(prefix, owner string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	return path.Join(p, util.HashOwnerKey(owner)) + "/"
}
