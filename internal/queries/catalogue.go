// Package queries holds the catalogue of sample property-path queries. The
// built-in definitions are embedded; more can be loaded from a directory of
// YAML files.
package queries

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/persistorai/ldpath/internal/automaton"
	"github.com/persistorai/ldpath/internal/models"
)

//go:embed catalogue/*.yaml
var builtin embed.FS

// Info is the listing form of a definition.
type Info struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
}

// Catalogue indexes definitions by id and by name.
type Catalogue struct {
	byID   map[int]*automaton.Definition
	byName map[string]*automaton.Definition
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{
		byID:   make(map[int]*automaton.Definition),
		byName: make(map[string]*automaton.Definition),
	}
}

// Default returns the built-in catalogue.
func Default() (*Catalogue, error) {
	c := New()

	sub, err := fs.Sub(builtin, "catalogue")
	if err != nil {
		return nil, fmt.Errorf("opening built-in catalogue: %w", err)
	}

	if err := c.LoadFS(sub); err != nil {
		return nil, err
	}

	return c, nil
}

// Load returns the built-in catalogue extended with the definitions in dir.
// Definitions from dir replace built-in ones with the same id.
func Load(dir string) (*Catalogue, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if dir == "" {
		return c, nil
	}

	if err := c.LoadFS(os.DirFS(dir)); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadFS adds every *.yaml and *.yml file at the root of fsys.
func (c *Catalogue) LoadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading query directory: %w", err)
	}

	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		if err := c.loadFile(fsys, e.Name()); err != nil {
			return err
		}
	}

	return nil
}

func (c *Catalogue) loadFile(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	d, err := automaton.ParseDefinition(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	c.Add(d)

	return nil
}

// Add registers d, replacing any definition with the same id.
func (c *Catalogue) Add(d *automaton.Definition) {
	if old, ok := c.byID[d.ID]; ok {
		delete(c.byName, strings.ToLower(old.Name))
	}

	c.byID[d.ID] = d
	c.byName[strings.ToLower(d.Name)] = d
}

// Lookup finds a definition by numeric id or case-insensitive name.
func (c *Catalogue) Lookup(key string) (*automaton.Definition, error) {
	key = strings.TrimSpace(key)

	if id, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(key), "q")); err == nil {
		if d, ok := c.byID[id]; ok {
			return d, nil
		}
	}

	if d, ok := c.byName[strings.ToLower(key)]; ok {
		return d, nil
	}

	return nil, fmt.Errorf("%w: %q", models.ErrQueryNotFound, key)
}

// List returns every definition ordered by id.
func (c *Catalogue) List() []*automaton.Definition {
	out := make([]*automaton.Definition, 0, len(c.byID))
	for _, d := range c.byID {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// Infos is List in listing form.
func (c *Catalogue) Infos() []Info {
	defs := c.List()

	out := make([]Info, len(defs))
	for i, d := range defs {
		out[i] = Info{ID: d.ID, Name: d.Name, Description: d.Description, Start: d.Start}
	}

	return out
}

// Len returns the number of definitions.
func (c *Catalogue) Len() int { return len(c.byID) }
