package menu

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

const defaultImageExt = ".jpg"

// ImageSink saves dish images under a per-day directory layout:
// root/<YYYY-MM-DD>/<mensa-slug>_<type-slug><ext>.
type ImageSink struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
}

// NewImageSink returns a sink rooted at dir.
func NewImageSink(root string, maxBytes int64, logger *zap.Logger) (*ImageSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create sink dir %s: %w", root, err)
	}
	return &ImageSink{
		root:     root,
		maxBytes: maxBytes,
		logger:   logger,
	}, nil
}

// Root returns the sink's base directory.
func (s *ImageSink) Root() string {
	return s.root
}

// Target computes the on-disk path for a meal's image. The mensa and dish
// type are slugged, so two workers scraping distinct days can never collide.
func (s *ImageSink) Target(meal Meal) string {
	name := fmt.Sprintf("%s_%s%s", Slugify(meal.Mensa), Slugify(meal.DishType), imageExt(meal.ImageURL))
	return filepath.Join(s.root, ISODate(meal.Date), name)
}

// Exists reports whether the target file is already on disk, so images are
// downloaded at most once across repeated runs.
func (s *ImageSink) Exists(target string) bool {
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

// Save writes the image bytes to the target path.
func (s *ImageSink) Save(ctx context.Context, target string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty image body")
	}
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("image size %d exceeds max %d", len(data), s.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating image dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("writing image to %s: %w", target, err)
	}
	return nil
}

// TreeSize returns the total bytes stored under the sink root.
func (s *ImageSink) TreeSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(s.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk sink dir %s: %w", s.root, err)
	}
	return total, nil
}

func imageExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultImageExt
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return defaultImageExt
}
