package add

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/trailmark/dvcs/internal/merkle"
)

var tabularExtensions = map[string]bool{
	".csv":     true,
	".tsv":     true,
	".parquet": true,
}

// SniffDataType derives an initial data type and MIME type for path from
// its extension plus content sniffing. Tabular files are recognized by
// extension since their MIME type alone (text/plain for CSV) doesn't
// distinguish them from ordinary text.
func SniffDataType(path string) (dataType merkle.DataType, mimeType string, err error) {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case tabularExtensions[ext]:
		return merkle.DataTypeTabular, mime.String(), nil
	case mime.Is("image/jpeg"), mime.Is("image/png"), mime.Is("image/gif"), mime.Is("image/webp"), strings.HasPrefix(mime.String(), "image/"):
		return merkle.DataTypeImage, mime.String(), nil
	case strings.HasPrefix(mime.String(), "audio/"):
		return merkle.DataTypeAudio, mime.String(), nil
	case strings.HasPrefix(mime.String(), "video/"):
		return merkle.DataTypeVideo, mime.String(), nil
	case strings.HasPrefix(mime.String(), "text/"):
		return merkle.DataTypeText, mime.String(), nil
	default:
		return merkle.DataTypeBinary, mime.String(), nil
	}
}

// FieldSchema is one column's schema annotation in a tabular file's
// metadata. Annotation carries free-form user customization (a
// description, a unit, a dtype override) that must survive re-adds.
type FieldSchema struct {
	Name       string
	DType      string
	Annotation string
}

// TabularMetadata is the data-type-specific metadata a tabular FileNode
// carries: its column schema.
type TabularMetadata struct {
	Fields []FieldSchema
}

// ComputeTabularMetadata sniffs a CSV/TSV header row into a field schema.
// Returns (nil, nil) when the file has no usable header line, signaling
// callers to downgrade the data type to Binary per spec.md 4.G.
func ComputeTabularMetadata(path string) (*TabularMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sep := byte(',')
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		sep = '\t'
	}

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, nil
	}
	header := scanner.Text()
	if header == "" {
		return nil, nil
	}

	cols := strings.Split(header, string(sep))
	fields := make([]FieldSchema, 0, len(cols))
	for _, c := range cols {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		fields = append(fields, FieldSchema{Name: name, DType: "string"})
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return &TabularMetadata{Fields: fields}, nil
}

// MergeFieldAnnotations copies field-level annotations from prev into
// next by column name, preserving user schema customizations across
// re-adds per spec.md 4.G and testable property 5.
func MergeFieldAnnotations(prev, next *TabularMetadata) {
	if prev == nil || next == nil {
		return
	}
	byName := make(map[string]string, len(prev.Fields))
	for _, f := range prev.Fields {
		if f.Annotation != "" {
			byName[f.Name] = f.Annotation
		}
	}
	for i, f := range next.Fields {
		if a, ok := byName[f.Name]; ok {
			next.Fields[i].Annotation = a
		}
	}
}

// EncodeTabularMetadata serializes metadata into the blob stored in the
// FileNode's Metadata field and hashed for MetadataHash.
func EncodeTabularMetadata(m *TabularMetadata) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeTabularMetadata deserializes a blob written by
// EncodeTabularMetadata.
func DecodeTabularMetadata(blob []byte) (*TabularMetadata, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var m TabularMetadata
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
