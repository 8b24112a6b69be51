package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `date,description,value,tags
January 01 2018,groceries #food,-20.5,food supplies
January 02 2018,lunch #food,-12.15,Food
January 03 2018,paycheck,500
`

type cli struct {
	db string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{db: filepath.Join(t.TempDir(), "data", "yaba.db")}
}

func (c *cli) run(t *testing.T, email string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(append([]string{"--db", c.db, "--email", email, "--password", "correct horse"}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) register(t *testing.T, email string) {
	t.Helper()
	l, err := openLedger(&options{dbPath: c.db}, io.Discard)
	require.NoError(t, err)
	defer l.Close()

	_, err = resolveOrRegister(context.Background(), l.auth, email, "correct horse")
	require.NoError(t, err)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportExport(t *testing.T) {
	c := newCLI(t)
	c.register(t, "alice@example.com")

	out, err := c.run(t, "alice@example.com", "import", "--csv", writeFile(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, "Imported 3 transactions (2 new tags, 3 links)\n", out)

	out, err = c.run(t, "alice@example.com", "export")
	require.NoError(t, err)
	assert.Equal(t, "date,description,value,tags\n"+
		"January 01 2018,'groceries #food',-20.5,food supplies\n"+
		"January 02 2018,'lunch #food',-12.15,food\n"+
		"January 03 2018,'paycheck',500,\n", out)

	dest := filepath.Join(t.TempDir(), "out.csv")
	_, err = c.run(t, "alice@example.com", "export", "--csv", dest)
	require.NoError(t, err)
	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}

func TestImport_RequiresCSVFlag(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "alice@example.com", "import")
	assert.EqualError(t, err, "--csv is required")
}

func TestCommands_RejectWrongPassword(t *testing.T) {
	c := newCLI(t)
	c.register(t, "alice@example.com")

	root := NewRootCommand()
	root.SetArgs([]string{"--db", c.db, "--email", "alice@example.com", "--password", "wrong", "export"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	assert.Error(t, root.Execute())
}

func TestParityAndHashtag(t *testing.T) {
	c := newCLI(t)
	c.register(t, "alice@example.com")

	csv := `date,description,value,tags
January 01 2018,groceries #shopping,-20.5,food
January 02 2018,lunch #food,-12.15,food
`
	_, err := c.run(t, "alice@example.com", "import", "--csv", writeFile(t, csv))
	require.NoError(t, err)

	out, err := c.run(t, "alice@example.com", "parity")
	require.EqualError(t, err, "1 transactions out of parity")
	assert.Contains(t, out, "groceries #shopping")
	assert.NotContains(t, out, "lunch")

	out, err = c.run(t, "alice@example.com", "hashtag")
	require.NoError(t, err)
	assert.Equal(t, "Updated 2 transactions\n", out)

	out, err = c.run(t, "alice@example.com", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "'groceries #shopping #food'")
	assert.Contains(t, out, "'lunch #food #food'")

	out, err = c.run(t, "alice@example.com", "parity")
	require.EqualError(t, err, "2 transactions out of parity")
	assert.Contains(t, out, "lunch")
}

func TestSeed(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "demo@example.com", "seed", "--count", "12")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 12 transactions for demo@example.com\n", out)

	out, err = c.run(t, "demo@example.com", "export")
	require.NoError(t, err)
	assert.Equal(t, 13, strings.Count(out, "\n"))

	_, err = c.run(t, "demo@example.com", "seed", "--count", "0")
	assert.EqualError(t, err, "--count must be positive")
}
