package metadata

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "tas-agent/errors"
	"tas-agent/links"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const fileExt = ".json"

// Document is one parsed metadata file: {"type": ..., "<id>": {...}}.
type Document struct {
	ID   string
	Type string
	Body *Map
}

// Store reads metadata documents from a directory and caches parsed trees.
type Store struct {
	dir    string
	cache  *lru.Cache
	logger *zap.Logger
}

// NewStore returns a Store over dir holding at most cacheSize parsed documents.
func NewStore(dir string, cacheSize int, logger *zap.Logger) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, apperrors.WrapError(err, "create metadata cache")
	}
	return &Store{dir: dir, cache: cache, logger: logger}, nil
}

// Get loads the document for id.
func (s *Store) Get(id string) (*Document, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return nil, apperrors.Join(apperrors.ErrInvalidInput, nil, "invalid data id %q", id)
	}
	if cached, ok := s.cache.Get(id); ok {
		return cached.(*Document), nil
	}

	path := filepath.Join(s.dir, id+fileExt)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Join(apperrors.ErrNotFound, nil, "metadata %s", id)
		}
		return nil, apperrors.WrapErrorf(err, "open metadata %s", id)
	}
	defer f.Close()

	root, err := Decode(f)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrInvalidInput, err, "decode metadata %s", id)
	}
	top, ok := root.(*Map)
	if !ok {
		return nil, apperrors.Join(apperrors.ErrInvalidInput, nil, "metadata %s is not an object", id)
	}
	body, ok := top.Get(id).(*Map)
	if !ok {
		return nil, apperrors.Join(apperrors.ErrNotFound, nil, "metadata %s has no %q object", id, id)
	}
	typ, _ := top.String("type")

	doc := &Document{ID: id, Type: typ, Body: body}
	s.cache.Add(id, doc)
	s.logger.Debug("Loaded metadata document", zap.String("data_id", id), zap.String("type", typ))
	return doc, nil
}

// BestURL returns the "url" field of the map inside document id whose text
// is most similar to chunk. The result is nil when nothing matches.
func (s *Store) BestURL(id, chunk string) (any, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	best, ratio := BestMatch(doc.Body, chunk)
	s.logger.Debug("Best metadata match",
		zap.String("data_id", id),
		zap.Float64("ratio", ratio),
		zap.Bool("found", best != nil))
	return Value(best.Get("url")), nil
}

// IframeLink returns the document's "iframe_link" field, or nil.
func (s *Store) IframeLink(id string) (any, error) {
	return s.field(id, "iframe_link")
}

// ArtistImage returns the document's "artist_image" field, or nil.
func (s *Store) ArtistImage(id string) (any, error) {
	return s.field(id, "artist_image")
}

func (s *Store) field(id, key string) (any, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return Value(doc.Body.Get(key)), nil
}

// SourceLinks groups the "name" and "source_link" of every document in ids
// by document type.
func (s *Store) SourceLinks(ids []string) (string, error) {
	refs := make([]links.Reference, 0, len(ids))
	for _, id := range ids {
		doc, err := s.Get(id)
		if err != nil {
			return "", err
		}
		name, okName := doc.Body.String("name")
		source, okSource := doc.Body.String("source_link")
		if !okName || !okSource {
			return "", apperrors.Join(apperrors.ErrNotFound, nil, "metadata %s lacks name or source_link", id)
		}
		refs = append(refs, links.Reference{Type: doc.Type, Label: name, URL: source})
	}
	return links.Group(refs), nil
}

// IDsOfType lists the ids of every document in the directory whose type is typ.
// Unreadable documents are skipped.
func (s *Store) IDsOfType(typ string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.WrapErrorf(err, "list metadata dir %s", s.dir)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), fileExt)
		doc, err := s.Get(id)
		if err != nil {
			s.logger.Warn("Skipping unreadable metadata document", zap.String("data_id", id), zap.Error(err))
			continue
		}
		if doc.Type == typ {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
