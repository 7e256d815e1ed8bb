// Package blob abstracts the object storage the app uploads listing
// images to: a blob plus destination path in, a public URL out.
package blob

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Store interface {
	Put(dst string, r io.Reader) (string, error)
}

// FSStore writes blobs under a local directory served at baseURL. Swap
// in a cloud-backed Store without touching callers.
type FSStore struct {
	root    string
	baseURL string
}

func NewFSStore(root, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FSStore) Put(dst string, r io.Reader) (string, error) {
	clean := path.Clean("/" + dst)
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/uploads%s", s.baseURL, clean), nil
}

// Root is the directory the HTTP layer serves as /uploads/.
func (s *FSStore) Root() string { return s.root }
