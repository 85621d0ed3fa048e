package configdoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound    = errors.New("configuration document not found")
	ErrInvalidName = errors.New("invalid document name")
	ErrInvalidYAML = errors.New("document is not valid yaml")
)

// Document names map directly onto file names, so they are restricted to a
// safe slug; anything else is rejected before touching the filesystem.
var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store keeps configuration documents as YAML files in one directory. Every
// write is validated as YAML and lands atomically via a temp file + rename.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	return &Store{dir: dir}, nil
}

func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read config dir: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, Info{
			Name:      entry.Name()[:len(entry.Name())-len(".yaml")],
			Size:      stat.Size(),
			UpdatedAt: stat.ModTime().UTC(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *Store) Get(name string) ([]byte, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document %s: %w", name, err)
	}

	return data, nil
}

func (s *Store) Put(name string, content []byte) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	var parsed any
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write document %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace document %s: %w", name, err)
	}

	return nil
}

func (s *Store) Delete(name string) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document %s: %w", name, err)
	}

	return nil
}

func (s *Store) pathFor(name string) (string, error) {
	if !nameRegex.MatchString(name) {
		return "", ErrInvalidName
	}

	return filepath.Join(s.dir, name+".yaml"), nil
}
