package media

import (
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

const (
	dataURIPrefix = "data:image/"
	recipesDir    = "recipes"
)

var ErrNotDataURI = errors.New("not an image data URI")

var allowedExt = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"jpg":  "jpg",
	"gif":  "gif",
	"webp": "webp",
}

type Store struct {
	root string
}

func NewStore(cfg *config.Config) *Store {
	return &Store{root: cfg.MediaRoot}
}

func NewStoreAt(root string) *Store {
	return &Store{root: root}
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, dataURIPrefix) {
		return nil, "", ErrNotDataURI
	}
	header, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil, "", errors.New("image data URI is not base64 encoded")
	}
	ext, ok := allowedExt[strings.ToLower(strings.TrimPrefix(header, dataURIPrefix))]
	if !ok {
		return nil, "", errors.New(fmt.Sprintf("unsupported image type: %s", header))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image payload")
	}
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	return data, ext, nil
}

// Save writes data under a fresh name and returns the handle stored on the
// recipe, relative to the media root.
func (s *Store) Save(data []byte, ext string) (string, error) {
	dir := filepath.Join(s.root, recipesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create media dir")
	}
	name := uuid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", errors.Wrap(err, "write image")
	}
	return recipesDir + "/" + name, nil
}

// Resolve turns a payload image into a handle: data URIs are decoded and
// stored, anything else is taken as an existing handle. created reports
// whether a new file was written.
func (s *Store) Resolve(image string) (handle string, created bool, err error) {
	data, ext, err := DecodeDataURI(image)
	if errors.Is(err, ErrNotDataURI) {
		return image, false, nil
	}
	if err != nil {
		return "", false, err
	}
	handle, err = s.Save(data, ext)
	if err != nil {
		return "", false, err
	}
	return handle, true, nil
}

// Remove deletes the file behind a handle produced by Save. Handles outside
// the recipes directory are not ours and are left alone, as are files that
// are already gone.
func (s *Store) Remove(handle string) error {
	dir, name := path.Split(handle)
	if dir != recipesDir+"/" || name == "" || name == "." || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, recipesDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove image")
	}
	return nil
}
