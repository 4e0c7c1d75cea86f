package db

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/magiconair/properties"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

type table struct {
	file DbFile
	name string
	pkey string
}

// Catalog maps table ids and names to their files and schemas.
type Catalog struct {
	mu     deadlock.RWMutex
	byID   map[int]*table
	byName map[string]*table
}

var _ FileResolver = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{
		byID:   map[int]*table{},
		byName: map[string]*table{},
	}
}

// AddTable registers file under name. The table id is the file id. An
// existing table with the same name or id is replaced.
func (c *Catalog) AddTable(file DbFile, name, pkey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.byName[name]; ok {
		delete(c.byID, old.file.ID())
	}
	if old, ok := c.byID[file.ID()]; ok {
		delete(c.byName, old.name)
	}
	t := &table{file: file, name: name, pkey: pkey}
	c.byID[file.ID()] = t
	c.byName[name] = t
}

func (c *Catalog) lookup(id int) (*table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "table %d", id)
	}
	return t, nil
}

func (c *Catalog) TableID(name string) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byName[name]
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "table %q", name)
	}
	return t.file.ID(), nil
}

func (c *Catalog) TableName(id int) (string, error) {
	t, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return t.name, nil
}

func (c *Catalog) TupleDesc(id int) (*TupleDesc, error) {
	t, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.file.TupleDesc(), nil
}

func (c *Catalog) DbFile(id int) (DbFile, error) {
	t, err := c.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.file, nil
}

func (c *Catalog) PrimaryKey(id int) (string, error) {
	t, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	return t.pkey, nil
}

// TableNames returns the registered table names in sorted order.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) TableIDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = map[int]*table{}
	c.byName = map[string]*table{}
}

// LoadSchema registers the tables described by a properties file:
//
//	tables = students,courses
//	students.file = students.dat
//	students.schema = id int, name string
//	students.pkey = id
//
// Relative file paths are resolved against the directory of the catalog.
func (c *Catalog) LoadSchema(path string) error {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return errors.Wrapf(err, "load catalog %s", path)
	}
	return c.loadProperties(p, filepath.Dir(path))
}

func (c *Catalog) loadProperties(p *properties.Properties, dir string) error {
	names := p.GetString("tables", "")
	if strings.TrimSpace(names) == "" {
		return errors.Wrap(ErrSchema, "catalog lists no tables")
	}
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		schema, ok := p.Get(name + ".schema")
		if !ok {
			return errors.Wrapf(ErrSchema, "table %q has no schema", name)
		}
		td, err := ParseTupleDesc(schema)
		if err != nil {
			return errors.Wrapf(err, "table %q", name)
		}
		path := p.GetString(name+".file", name+".dat")
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		pkey := p.GetString(name+".pkey", "")
		if pkey != "" {
			if _, err := td.IndexOf(pkey); err != nil {
				return errors.Wrapf(err, "table %q primary key", name)
			}
		}
		file := OpenHeapFile(path, td)
		c.AddTable(file, name, pkey)
		logger.WithFields(logrus.Fields{
			"table":  name,
			"file":   path,
			"schema": td.String(),
		}).Debug("table added")
	}
	return nil
}
