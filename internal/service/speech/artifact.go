package speech

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ArtifactStore persists synthesized audio under collision-free names.
type ArtifactStore struct {
	dir       string
	urlPrefix string
	ext       string
	newID     func() string
}

// NewArtifactStore writes into dir and builds URLs below urlPrefix.
func NewArtifactStore(dir, urlPrefix string) *ArtifactStore {
	return &ArtifactStore{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		ext:       ".mp3",
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Save writes audio to a new file and returns its public URL. Existing files
// are never overwritten; a name clash is retried with a fresh identifier.
func (s *ArtifactStore) Save(audio []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dir: %w", err)
	}

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		name := "output_" + s.newID() + s.ext
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create audio artifact: %w", err)
		}

		if _, err := f.Write(audio); err != nil {
			f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("failed to write audio artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close audio artifact: %w", err)
		}

		return path.Join(s.urlPrefix, name), nil
	}

	return "", fmt.Errorf("failed to allocate unique audio artifact name")
}
