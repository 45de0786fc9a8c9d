package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	domain "github.com/oshokin/selenium-launcher/internal/domain/artifact"
)

const (
	// DefaultDirMode is used when creating the artifact directory.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is used for persisted archives.
	DefaultFileMode os.FileMode = 0o644
)

// Repository defines storage operations for server archives.
type Repository interface {
	List(ctx context.Context) ([]domain.Candidate, error)
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, name string, body io.Reader) (string, int64, error)
	Path(name string) string
}

// FileStore keeps archives named "<prefix>-<version>.<ext>" in a directory.
type FileStore struct {
	// dir is the artifact directory.
	dir string
	// prefix is the archive name prefix without the trailing dash.
	prefix string
	// ext is the archive extension without the dot.
	ext string
}

var (
	// errInvalidName is returned when a name would escape the directory.
	errInvalidName = errors.New("invalid artifact name")
	// errNilBody is returned when Save gets no content.
	errNilBody = errors.New("artifact body is nil")
	// errEmptyBody is returned when Save receives no bytes.
	errEmptyBody = errors.New("artifact body is empty")
)

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir, prefix, ext string) *FileStore {
	return &FileStore{
		dir:    filepath.Clean(dir),
		prefix: prefix,
		ext:    strings.TrimPrefix(ext, "."),
	}
}

// Path returns the full path of an archive name inside the store.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// List returns every non-empty regular file that follows the naming convention.
// A missing directory yields no candidates. Files whose name has no
// N.N.N token are returned with HasVersion false.
func (s *FileStore) List(_ context.Context) ([]domain.Candidate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(entries))

	for _, entry := range entries {
		if !entry.Type().IsRegular() || !s.matches(entry.Name()) {
			continue
		}

		// Empty files are leftovers of an interrupted download.
		info, infoErr := entry.Info()
		if infoErr != nil || info.Size() == 0 {
			continue
		}

		candidates = append(candidates, domain.NewCandidate(entry.Name()))
	}

	return candidates, nil
}

// Exists reports whether a non-empty archive with the given name is present.
func (s *FileStore) Exists(_ context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}

	info, err := os.Stat(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("stat artifact: %w", err)
	}

	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// Save writes body to the named archive, creating the directory if needed.
// The body is first streamed to a hidden part file; the archive name appears
// only once the whole body has arrived, and is then swapped in with go-update.
// It returns the archive path and the number of bytes written.
func (s *FileStore) Save(_ context.Context, name string, body io.Reader) (string, int64, error) {
	if body == nil {
		return "", 0, errNilBody
	}

	if err := checkName(name); err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(s.dir, DefaultDirMode); err != nil {
		return "", 0, fmt.Errorf("create artifact directory: %w", err)
	}

	part, written, err := s.receive(name, body)
	if err != nil {
		return "", 0, err
	}

	defer func() {
		_ = part.Close()
		_ = os.Remove(part.Name())
	}()

	target := s.Path(name)

	// go-update swaps the target aside before moving the new file in, so it must exist.
	placeholder, err := ensureFile(target)
	if err != nil {
		return "", 0, err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
	}

	if err = goupdate.Apply(part, options); err != nil {
		if placeholder {
			_ = os.Remove(target)
		}

		return "", 0, fmt.Errorf("write artifact %s: %w", name, err)
	}

	return target, written, nil
}

// receive copies body into a hidden part file and returns it rewound for reading.
func (s *FileStore) receive(name string, body io.Reader) (*os.File, int64, error) {
	part, err := os.CreateTemp(s.dir, "."+name+".*.part")
	if err != nil {
		return nil, 0, fmt.Errorf("create part file: %w", err)
	}

	discard := func(cause error) (*os.File, int64, error) {
		_ = part.Close()
		_ = os.Remove(part.Name())

		return nil, 0, cause
	}

	written, err := io.Copy(part, body)
	if err != nil {
		return discard(fmt.Errorf("receive artifact %s: %w", name, err))
	}

	if written == 0 {
		return discard(fmt.Errorf("%s: %w", name, errEmptyBody))
	}

	if _, err = part.Seek(0, io.SeekStart); err != nil {
		return discard(fmt.Errorf("rewind part file: %w", err))
	}

	return part, written, nil
}

func (s *FileStore) matches(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}

	return strings.HasPrefix(name, s.prefix+"-") && strings.HasSuffix(name, "."+s.ext)
}

// ensureFile creates an empty file at path when absent and reports whether it did.
func ensureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat artifact: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFileMode)
	if err != nil {
		return false, fmt.Errorf("create artifact: %w", err)
	}

	if err = f.Close(); err != nil {
		return true, fmt.Errorf("create artifact: %w", err)
	}

	return true, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, errInvalidName)
	}

	return nil
}
