package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store loads and persists the rule document.
type Store interface {
	Load() (Document, error)
	Save(Document) error
}

// FileStore keeps the document in a single YAML file. A missing file is
// an empty document, not an error.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (s *FileStore) Load() (Document, error) {
	var doc Document
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			doc.Categories = []CategoryRule{}
			doc.Tags = []TagRule{}
			doc.applyDefaults()
			return doc, nil
		}
		return Document{}, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse rules: %w", err)
	}
	if doc.Categories == nil {
		doc.Categories = []CategoryRule{}
	}
	if doc.Tags == nil {
		doc.Tags = []TagRule{}
	}
	doc.applyDefaults()
	return doc, nil
}

// Save rewrites the whole document atomically: write to a temp file in
// the same directory, then rename over the target.
func (s *FileStore) Save(doc Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir rules dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rules-*.yaml")
	if err != nil {
		return fmt.Errorf("temp rules file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
