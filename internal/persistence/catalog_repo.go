package persistence

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixbrock/chartlint/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/chart_prompts.json
var defaultCatalog []byte

// CatalogRepo reads the rule catalog on every Load so that edits to the file
// take effect without a restart. An empty Path uses the embedded catalog.
type CatalogRepo struct {
	Path string
}

func (r CatalogRepo) Load(ctx context.Context) (domain.RuleCatalog, error) {
	if r.Path == "" {
		return decodeCatalog(defaultCatalog, ".json")
	}

	content, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", r.Path, domain.ErrCatalogUnavailable, err)
	}

	catalog, err := decodeCatalog(content, filepath.Ext(r.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Path, err)
	}

	if missing := catalog.Missing(); len(missing) > 0 {
		slog.Debug("catalog has no dedicated rules for some chart types", "path", r.Path, "missing", missing)
	}
	if extra := catalog.Unreachable(); len(extra) > 0 {
		slog.Warn("catalog entries never match a detected chart type", "path", r.Path, "entries", extra)
	}

	return catalog, nil
}

func decodeCatalog(content []byte, ext string) (domain.RuleCatalog, error) {
	var entries map[string]string
	var err error

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &entries)
	default:
		err = json.Unmarshal(content, &entries)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w: %w", domain.ErrCatalogUnavailable, err)
	} else if len(entries) == 0 {
		return nil, fmt.Errorf("empty catalog: %w", domain.ErrCatalogUnavailable)
	}

	catalog := make(domain.RuleCatalog, len(entries))
	for k, v := range entries {
		catalog[domain.Category(k)] = v
	}

	return catalog, nil
}
