package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/runger/searchpick/internal/search"
)

// itemFile is the document layout shared by the YAML, TOML and JSON
// item file formats.
type itemFile struct {
	Items []fileItem `yaml:"items" toml:"items" json:"items"`
}

type fileItem struct {
	ID       int            `yaml:"id" toml:"id" json:"id"`
	SubID    int            `yaml:"sub_id" toml:"sub_id" json:"sub_id"`
	Title    string         `yaml:"title" toml:"title" json:"title"`
	Subtitle string         `yaml:"subtitle" toml:"subtitle" json:"subtitle"`
	Logo     string         `yaml:"logo" toml:"logo" json:"logo"`
	Payload  map[string]any `yaml:"payload,omitempty" toml:"payload,omitempty" json:"payload,omitempty"`
}

// LoadFile reads items from a .yaml, .yml, .toml or .json file.
// Items without a title are skipped; items without an id are numbered by
// position.
func LoadFile(path string) ([]*search.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}

	var doc itemFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported items file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse items file %s: %w", path, err)
	}

	items := make([]*search.Item, 0, len(doc.Items))
	for i, fi := range doc.Items {
		title := CleanText(fi.Title)
		if title == "" {
			continue
		}
		id := fi.ID
		if id == 0 {
			id = i + 1
		}
		it := search.NewItem(id, title)
		it.SubID = fi.SubID
		it.Subtitle = CleanText(fi.Subtitle)
		it.Logo = fi.Logo
		if len(fi.Payload) > 0 {
			it.Payload = fi.Payload
		}
		items = append(items, it)
	}
	return items, nil
}

// FileLoader adapts LoadFile to search.Loader.
func FileLoader(path string) search.Loader {
	return search.LoaderFunc(func(context.Context) ([]*search.Item, error) {
		return LoadFile(path)
	})
}
