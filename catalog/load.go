package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "tas-agent/errors"

	"gopkg.in/yaml.v3"
)

// Format selects the record encoding of a catalog source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

var requiredColumns = []string{"type", "id", "name", "unique_name"}

// FormatForPath picks the format from the file extension; CSV is the default.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// Load reads the catalog file at path. Every failure wraps ErrCatalogLoad.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "open catalog %s", path)
	}
	defer f.Close()

	idx, err := LoadReader(f, FormatForPath(path))
	if err != nil {
		return nil, apperrors.WrapErrorf(err, "catalog %s", path)
	}
	return idx, nil
}

// LoadReader decodes catalog records from r in the given format.
func LoadReader(r io.Reader, format Format) (*Index, error) {
	var (
		entries []Entry
		err     error
	)
	switch format {
	case FormatYAML:
		entries, err = decodeYAML(r)
	default:
		entries, err = decodeCSV(r)
	}
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

func decodeCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Join(apperrors.ErrCatalogLoad, nil, "empty catalog")
		}
		return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "read header")
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, apperrors.Join(apperrors.ErrCatalogLoad, nil, "missing column %q", name)
		}
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "read record %d", line)
		}
		e := Entry{
			Type:       record[columns["type"]],
			ID:         record[columns["id"]],
			Name:       record[columns["name"]],
			UniqueName: record[columns["unique_name"]],
		}
		if err := validate(e); err != nil {
			return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "record %d", line)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeYAML(r io.Reader) ([]Entry, error) {
	var raw []map[string]*string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "decode yaml")
	}

	entries := make([]Entry, 0, len(raw))
	for i, rec := range raw {
		for _, name := range requiredColumns {
			if rec[name] == nil {
				return nil, apperrors.Join(apperrors.ErrCatalogLoad, nil, "record %d: missing field %q", i+1, name)
			}
		}
		e := Entry{
			Type:       *rec["type"],
			ID:         *rec["id"],
			Name:       *rec["name"],
			UniqueName: *rec["unique_name"],
		}
		if err := validate(e); err != nil {
			return nil, apperrors.Join(apperrors.ErrCatalogLoad, err, "record %d", i+1)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// validate rejects records with a blank identity or display name.
// unique_name must be present but may be empty.
func validate(e Entry) error {
	switch {
	case strings.TrimSpace(e.Type) == "":
		return fmt.Errorf("empty type")
	case strings.TrimSpace(e.ID) == "":
		return fmt.Errorf("empty id")
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("empty name")
	}
	return nil
}
