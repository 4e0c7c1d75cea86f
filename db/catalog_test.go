package db

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

func TestCatalogAddTable(t *testing.T) {
	c := NewCatalog()
	td := intDesc(t, "a")
	f1 := NewHeapFile(NewMemStore("one", nil), td)
	f2 := NewHeapFile(NewMemStore("two", nil), td)
	c.AddTable(f1, "t", "a")

	id, err := c.TableID("t")
	assert.NilError(t, err)
	assert.Equal(t, f1.ID(), id)
	name, err := c.TableName(id)
	assert.NilError(t, err)
	assert.Equal(t, "t", name)
	pkey, err := c.PrimaryKey(id)
	assert.NilError(t, err)
	assert.Equal(t, "a", pkey)
	got, err := c.TupleDesc(id)
	assert.NilError(t, err)
	assert.Equal(t, td, got)

	c.AddTable(f2, "t", "")
	_, err = c.DbFile(f1.ID())
	assert.Assert(t, errors.Is(err, ErrNotFound))
	id, err = c.TableID("t")
	assert.NilError(t, err)
	assert.Equal(t, f2.ID(), id)

	c.AddTable(f2, "u", "")
	_, err = c.TableID("t")
	assert.Assert(t, errors.Is(err, ErrNotFound))
	assert.DeepEqual(t, []string{"u"}, c.TableNames())
	assert.DeepEqual(t, []int{f2.ID()}, c.TableIDs())

	c.Clear()
	assert.Equal(t, 0, len(c.TableNames()))
}

func TestCatalogLoadSchema(t *testing.T) {
	dir := fs.NewDir(t, "catalog",
		fs.WithFile("catalog.properties", `
tables = students, courses
students.file = data/students.dat
students.schema = id int, name string
students.pkey = id
courses.schema = id int, credits int
`),
		fs.WithDir("data"))
	defer dir.Remove()

	c := NewCatalog()
	assert.NilError(t, c.LoadSchema(dir.Join("catalog.properties")))
	assert.DeepEqual(t, []string{"courses", "students"}, c.TableNames())

	id, err := c.TableID("students")
	assert.NilError(t, err)
	file, err := c.DbFile(id)
	assert.NilError(t, err)
	assert.Equal(t, canonicalPath(dir.Join("data", "students.dat")), file.(*HeapFile).Store().Name())
	td, err := c.TupleDesc(id)
	assert.NilError(t, err)
	assert.Equal(t, "INT_TYPE(id),STRING_TYPE(name)", td.String())

	id, err = c.TableID("courses")
	assert.NilError(t, err)
	file, err = c.DbFile(id)
	assert.NilError(t, err)
	assert.Equal(t, canonicalPath(dir.Join("courses.dat")), file.(*HeapFile).Store().Name())
}

func TestCatalogLoadSchemaErrors(t *testing.T) {
	dir := fs.NewDir(t, "catalog",
		fs.WithFile("empty.properties", "x = 1\n"),
		fs.WithFile("noschema.properties", "tables = t\n"),
		fs.WithFile("badkey.properties", "tables = t\nt.schema = a int\nt.pkey = b\n"))
	defer dir.Remove()

	c := NewCatalog()
	assert.Assert(t, errors.Is(c.LoadSchema(dir.Join("empty.properties")), ErrSchema))
	assert.Assert(t, errors.Is(c.LoadSchema(dir.Join("noschema.properties")), ErrSchema))
	assert.Assert(t, errors.Is(c.LoadSchema(dir.Join("badkey.properties")), ErrNotFound))
	assert.Check(t, is.ErrorContains(c.LoadSchema(dir.Join("missing.properties")), "load catalog"))
}
