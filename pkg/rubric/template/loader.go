package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/pkg/rubric"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when no template file exists for the requested ID.
var ErrNotFound = fmt.Errorf("template not found")

// Loader reads rubric templates from a directory of JSON files and caches
// parsed results. Template files are trusted config, but still validated so
// a malformed file cannot seed an invalid rubric.
type Loader struct {
	dir       string
	defaultID string

	mu       sync.Mutex
	cache    map[string]*rubric.Rubric
	validate *validator.Validate
	logger   logger.ILogger
}

func NewLoader(dir, defaultID string, log logger.ILogger) *Loader {
	return &Loader{
		dir:       dir,
		defaultID: defaultID,
		cache:     make(map[string]*rubric.Rubric),
		validate:  validator.New(),
		logger:    log,
	}
}

// List returns the IDs of all templates available in the directory.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}

// Load reads and validates the template with the given ID. Parsed templates
// are cached; Load always hands back a copy so callers cannot mutate the
// cached rubric.
func (l *Loader) Load(id string) (*rubric.Rubric, error) {
	l.mu.Lock()
	cached, ok := l.cache[id]
	l.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	path := filepath.Join(l.dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read template %s: %w", id, err)
	}

	var tpl rubric.Rubric
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", id, err)
	}

	if err := l.validate.Struct(&tpl); err != nil {
		return nil, fmt.Errorf("invalid template %s: %w", id, err)
	}
	if err := checkUniqueIDs(&tpl); err != nil {
		return nil, fmt.Errorf("invalid template %s: %w", id, err)
	}

	// Templates may omit the evidence array; normalize to empty slices.
	for i := range tpl.Criteria {
		if tpl.Criteria[i].Evidence == nil {
			tpl.Criteria[i].Evidence = []string{}
		}
	}

	l.mu.Lock()
	l.cache[id] = &tpl
	l.mu.Unlock()

	l.logger.Info("TemplateLoader", "Template loaded", map[string]interface{}{
		"id":       id,
		"role":     tpl.Role,
		"criteria": len(tpl.Criteria),
	})
	return tpl.Clone(), nil
}

// LoadDefault loads the configured default template.
func (l *Loader) LoadDefault() (*rubric.Rubric, error) {
	return l.Load(l.defaultID)
}

// ClearCache drops all cached templates, forcing re-reads from disk.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]*rubric.Rubric)
	l.mu.Unlock()
}

func checkUniqueIDs(tpl *rubric.Rubric) error {
	seen := make(map[string]struct{}, len(tpl.Criteria))
	for _, c := range tpl.Criteria {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate criterion id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
