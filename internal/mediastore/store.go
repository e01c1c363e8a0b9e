package mediastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/answerdesk/answerdesk/internal/config"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// Store resolves /media/ URLs to files under exactly two roots: the
// original samples directory and the extracted-media directory. Paths
// under /media/extracted/ resolve into the extracted root; everything
// else under /media/ resolves into the samples root. Any path escaping
// its root is rejected.
type Store struct {
	samplesRoot   string
	extractedRoot string
}

func New(cfg config.MediaConfig) *Store {
	return &Store{
		samplesRoot:   filepath.Clean(cfg.SamplesDir),
		extractedRoot: filepath.Clean(cfg.ExtractedDir),
	}
}

// ExtractedDir is where the document parser writes extracted images.
func (s *Store) ExtractedDir() string {
	return s.extractedRoot
}

// Resolve maps a media path (the part after /media/) to an absolute file
// path, or an error if the file is missing or the path escapes its root.
func (s *Store) Resolve(mediaPath string) (string, error) {
	mediaPath = strings.TrimPrefix(mediaPath, "/")
	root := s.samplesRoot
	if rest, ok := strings.CutPrefix(mediaPath, "extracted/"); ok {
		root = s.extractedRoot
		mediaPath = rest
	}
	full, err := securePath(root, mediaPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: media %s", errs.ErrNotFound, mediaPath)
	}
	return full, nil
}

func securePath(root, rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("%w: empty media path", errs.ErrInvalid)
	}
	full := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	relative, err := filepath.Rel(root, full)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: media path escapes root", errs.ErrInvalid)
	}
	return full, nil
}
