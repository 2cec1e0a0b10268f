package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/cvgate/internal/metrics"
)

func TestReadDocumentPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv-plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("2021 - 2023\r\nDéveloppeur chez Capgemini\nAPI REST, React\n"), 0o644))

	input, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "cv-plain", input.DocumentID)
	require.Len(t, input.Lines, 3)
	assert.Equal(t, "2021 - 2023", input.Lines[0])
	assert.Equal(t, "Développeur chez Capgemini", input.Lines[1])
	assert.Empty(t, input.EntityHints)
	assert.Empty(t, input.SectionBounds)
}

func TestReadDocumentJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv-json.json")
	doc := `{
		"document_id": "cv-42",
		"lines": ["EXPERIENCE", "2020 - 2022 | Ingénieur | Thales"],
		"entity_hints": [{"label": "ORG", "text": "Thales", "line_index": 1}],
		"section_bounds": {"experience": {"start_line": 0, "end_line": 2}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	input, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "cv-42", input.DocumentID)
	assert.Len(t, input.Lines, 2)
	require.Len(t, input.EntityHints, 1)
	assert.Equal(t, "Thales", input.EntityHints[0].Text)
	assert.Equal(t, 1, input.EntityHints[0].Line)
	bounds, ok := input.SectionBounds["experience"]
	require.True(t, ok)
	assert.Equal(t, 0, bounds.Start)
	assert.Equal(t, 2, bounds.End)
}

func TestReadDocumentJSONDefaultsID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv-noid.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lines": ["a"]}`), 0o644))

	input, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "cv-noid", input.DocumentID)
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := readDocument(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestDocIDFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"docs/cv-007.txt", "cv-007"},
		{"cv.json", "cv"},
		{"/abs/path/resume.final.txt", "resume.final"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, docIDFromPath(tt.path))
		})
	}
}

func TestWriteSnapshotToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	snapshot := metrics.Snapshot{DocID: "cv-009", ExperiencesFinal: 2}

	require.NoError(t, writeSnapshot(snapshot, "json", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"doc_id": "cv-009"`)
	assert.Contains(t, string(data), `"experiences_final": 2`)
}

func TestWriteSnapshotUnknownFormat(t *testing.T) {
	err := writeSnapshot(metrics.Snapshot{}, "xml", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
