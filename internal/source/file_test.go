package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "items.yaml", `items:
  - id: 10
    title: Apples
    subtitle: red
  - title: Bananas
    sub_id: 2
    payload:
      aisle: 4
`},
		{"yml", "items.yml", `items:
  - {id: 10, title: Apples, subtitle: red}
  - {title: Bananas, sub_id: 2, payload: {aisle: 4}}
`},
		{"toml", "items.toml", `[[items]]
id = 10
title = "Apples"
subtitle = "red"

[[items]]
title = "Bananas"
sub_id = 2
[items.payload]
aisle = 4
`},
		{"json", "items.json", `{"items": [
  {"id": 10, "title": "Apples", "subtitle": "red"},
  {"title": "Bananas", "sub_id": 2, "payload": {"aisle": 4}}
]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := LoadFile(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Len(t, items, 2)

			assert.Equal(t, 10, items[0].ID)
			assert.Equal(t, "Apples", items[0].Title)
			assert.Equal(t, "red", items[0].Subtitle)
			assert.Nil(t, items[0].Payload)

			assert.Equal(t, 2, items[1].ID, "missing id is numbered by position")
			assert.Equal(t, 2, items[1].SubID)
			payload, ok := items[1].Payload.(map[string]any)
			require.True(t, ok)
			assert.Contains(t, payload, "aisle")
		})
	}
}

func TestLoadFile_SkipsUntitled(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "items.yaml", "items:\n  - title: \"  \"\n  - title: kept\n")
	items, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, itemTitles(items))
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "items.csv", "a,b"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = LoadFile(writeFile(t, "items.json", "{not json"))
	assert.ErrorContains(t, err, "parse items file")
}

func TestFileLoader(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "items.json", `{"items": [{"title": "only"}]}`)
	items, err := FileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, itemTitles(items))
}
