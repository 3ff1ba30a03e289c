package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoValidRecords is returned when a source parsed but held no usable medicine.
var ErrNoValidRecords = errors.New("catalog source has no valid records")

// Source fetches the initial catalog.
type Source interface {
	Fetch(ctx context.Context) ([]Medicine, error)
}

// HTTPSource reads a JSON array of medicines from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
	Logger *log.Logger
}

// NewHTTPSource creates a source with a bounded request timeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Medicine, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	return decodeRecords(body, loggerOr(s.Logger))
}

// FileSource reads a catalog file: YAML for .yaml/.yml, JSON otherwise.
type FileSource struct {
	Path   string
	Logger *log.Logger
}

func (s *FileSource) Fetch(ctx context.Context) ([]Medicine, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", s.Path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", s.Path, err)
		}
	}
	return decodeRecords(data, loggerOr(s.Logger))
}

// record mirrors Medicine with optional fields so missing ones can be detected.
type record struct {
	ID           *string  `json:"id"`
	Name         *string  `json:"name"`
	Strength     *string  `json:"strength"`
	Form         *string  `json:"form"`
	Price        *float64 `json:"price"`
	Stock        *float64 `json:"stock"`
	Manufacturer string   `json:"manufacturer"`
	Category     string   `json:"category"`
}

func (r record) medicine() (Medicine, error) {
	switch {
	case r.ID == nil || strings.TrimSpace(*r.ID) == "":
		return Medicine{}, errors.New("missing id")
	case r.Name == nil:
		return Medicine{}, errors.New("missing name")
	case r.Strength == nil:
		return Medicine{}, errors.New("missing strength")
	case r.Form == nil:
		return Medicine{}, errors.New("missing form")
	case r.Price == nil || *r.Price < 0:
		return Medicine{}, errors.New("missing or negative price")
	case r.Stock == nil || *r.Stock < 0 || *r.Stock != math.Trunc(*r.Stock):
		return Medicine{}, errors.New("missing or invalid stock")
	}
	return Medicine{
		ID:           *r.ID,
		Name:         *r.Name,
		Strength:     *r.Strength,
		Form:         *r.Form,
		Price:        *r.Price,
		Stock:        int(*r.Stock),
		Manufacturer: r.Manufacturer,
		Category:     r.Category,
	}, nil
}

// decodeRecords parses a JSON array, skipping malformed entries.
func decodeRecords(data []byte, logger *log.Logger) ([]Medicine, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog is not an array: %w", err)
	}
	meds := make([]Medicine, 0, len(raw))
	for i, item := range raw {
		var r record
		if err := json.Unmarshal(item, &r); err != nil {
			logger.Printf("catalog: skipping record %d: %v", i, err)
			continue
		}
		m, err := r.medicine()
		if err != nil {
			logger.Printf("catalog: skipping record %d: %v", i, err)
			continue
		}
		meds = append(meds, m)
	}
	if len(meds) == 0 {
		return nil, ErrNoValidRecords
	}
	return meds, nil
}

func loggerOr(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}
