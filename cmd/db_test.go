package cmd

import (
	"bytes"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
)

func run(t *testing.T, args ...string) string {
	var out bytes.Buffer
	rootCmd.SetOutput(&out)
	rootCmd.SetArgs(args)
	assert.NilError(t, rootCmd.Execute())
	return out.String()
}

func TestConvertAndScan(t *testing.T) {
	dir := fs.NewDir(t, "heapdb",
		fs.WithFile("rows.txt", "1,alice\n2,bob\n3,carol\n"),
		fs.WithFile("catalog.properties", "tables = people\npeople.file = people.dat\npeople.schema = id int, name string\n"))
	defer dir.Remove()

	out := run(t, "convert", dir.Join("rows.txt"), dir.Join("people.dat"), "id int, name string")
	assert.Equal(t, "3 tuples, 1 pages\n", out)

	catalog := dir.Join("catalog.properties")
	out = run(t, "--catalog", catalog, "scan", "people", "--header", "--alias", "p")
	assert.Equal(t, "INT_TYPE(p.id),STRING_TYPE(p.name)\n1\talice\n2\tbob\n3\tcarol\n", out)

	out = run(t, "--catalog", catalog, "pages", dir.Join("people.dat"), "id int, name string")
	assert.Assert(t, strings.Contains(out, "0\t3/30 slots used\n"), out)
}
