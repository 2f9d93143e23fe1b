package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Document names.
const (
	DocVIP            = "vip"
	DocCategories     = "categories"
	DocPlanning       = "planning"
	DocAssignment     = "assignment"
	DocFinalBlock     = "final_block"
	DocFinalsDays     = "finals_days"
	DocFinalsDaysMeta = "finals_days_meta"
	DocSettings       = "settings"
	DocAPIConfig      = "api_config"
	DocViewFilters    = "view_filters"
)

// ErrUnknownDocument is returned for names outside the known document set.
var ErrUnknownDocument = errors.New("unknown storage key")

var defaults = map[string]string{
	DocVIP:            `[]`,
	DocCategories:     `[]`,
	DocPlanning:       `[]`,
	DocAssignment:     `[]`,
	DocFinalBlock:     `{}`,
	DocFinalsDays:     `{}`,
	DocFinalsDaysMeta: `{"num_days": 1}`,
	DocSettings:       `{}`,
	DocAPIConfig:      `{}`,
	DocViewFilters:    `{}`,
}

// DocumentNames lists every known document.
func DocumentNames() []string {
	return []string{
		DocVIP, DocCategories, DocPlanning, DocAssignment, DocFinalBlock,
		DocFinalsDays, DocFinalsDaysMeta, DocSettings, DocAPIConfig, DocViewFilters,
	}
}

// DocumentStore reads and writes whole JSON documents. Reads never fail on
// bad data: a missing, blank or unparsable document yields its default.
type DocumentStore struct {
	backend Backend
	log     *zap.Logger
	Ctx     context.Context // Base context

	mu sync.Mutex
}

// NewDocumentStore wraps a backend.
func NewDocumentStore(backend Backend, log *zap.Logger) *DocumentStore {
	return &DocumentStore{
		backend: backend,
		log:     log.Named("store"),
		Ctx:     context.Background(),
	}
}

// LoadRaw returns the stored bytes or the document default.
func (s *DocumentStore) LoadRaw(name string) (json.RawMessage, error) {
	def, ok := defaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}
	data, err := s.backend.Read(s.Ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("read failed, using default", zap.String("document", name), zap.Error(err))
		}
		return json.RawMessage(def), nil
	}
	if len(bytes.TrimSpace(data)) == 0 || !json.Valid(data) {
		s.log.Warn("document empty or invalid, using default", zap.String("document", name))
		return json.RawMessage(def), nil
	}
	return data, nil
}

// Load decodes a document into out, falling back to the default on decode errors.
func (s *DocumentStore) Load(name string, out any) error {
	raw, err := s.LoadRaw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("document shape unexpected, using default", zap.String("document", name), zap.Error(err))
		return json.Unmarshal([]byte(defaults[name]), out)
	}
	return nil
}

// Save overwrites a document.
func (s *DocumentStore) Save(name string, value any) error {
	if _, ok := defaults[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Write(s.Ctx, name, data); err != nil {
		s.log.Error("save failed", zap.String("document", name), zap.Error(err))
		return err
	}
	s.log.Debug("document saved", zap.String("document", name), zap.Int("bytes", len(data)))
	return nil
}

// Reset deletes every document.
func (s *DocumentStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bulk, ok := s.backend.(interface {
		DeleteAll(ctx context.Context, names []string) error
	}); ok {
		return bulk.DeleteAll(s.Ctx, DocumentNames())
	}
	for _, name := range DocumentNames() {
		if err := s.backend.Delete(s.Ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// encode writes 2-space indented JSON without escaping non-ASCII or HTML.
func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeList decodes a JSON array element by element, skipping entries
// that do not fit T (strings in a list of objects, and so on).
func decodeList[T any](raw json.RawMessage) []T {
	var items []json.RawMessage
	out := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, one := range items {
		if bytes.Equal(bytes.TrimSpace(one), []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(one, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}
