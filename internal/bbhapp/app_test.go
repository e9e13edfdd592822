package bbhapp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogs/internal/bbh"
	"cogs/internal/model"
)

func writeTables(t *testing.T, tables map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range tables {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

var orgs = []model.Organism{{ID: 1, Name: "eco"}, {ID: 2, Name: "bsu"}, {ID: 3, Name: "mja"}}

func TestWritePairs(t *testing.T) {
	dir := writeTables(t, map[string]string{
		"eco__bsu": "e2;b2\ne1;b1\ne1;b9\n",
		"bsu__eco": "b1;e1\nb2;e3\n",
		"eco__mja": "e1 m1\n",
		"mja__eco": "m1 e1\n",
		"bsu__mja": "",
		"mja__bsu": "m1\tb1\n",
	})
	var out bytes.Buffer
	err := WritePairs(context.Background(), &out, bbh.NewHitTableProvider(dir, nil, nil), orgs)
	require.NoError(t, err)
	assert.Equal(t, "> eco bsu\ne1\tb1\n> eco mja\ne1\tm1\n> bsu mja\n", out.String())
}

func TestWritePairsMissingTable(t *testing.T) {
	dir := writeTables(t, map[string]string{"eco__bsu": "", "bsu__eco": ""})
	var out bytes.Buffer
	err := WritePairs(context.Background(), &out, bbh.NewHitTableProvider(dir, nil, nil), orgs)
	require.ErrorIs(t, err, bbh.ErrMissingEdgeData)
	assert.Contains(t, err.Error(), "eco/mja")
	assert.Equal(t, "> eco bsu\n", out.String())
}

func TestRunExitCodes(t *testing.T) {
	dir := writeTables(t, map[string]string{"eco__bsu": "e1;b1\n", "bsu__eco": "b1;e1\n"})
	env := filepath.Join(dir, "empty.env")
	require.NoError(t, os.WriteFile(env, nil, 0o644))
	fa := func(name string) string {
		p := filepath.Join(dir, name+".fa")
		require.NoError(t, os.WriteFile(p, []byte(">x\nM\n"), 0o644))
		return p
	}
	base := []string{"--env-file", env, "--hits", dir, "-q", fa("eco"), fa("bsu")}

	var out, errBuf bytes.Buffer
	assert.Equal(t, 0, RunContext(context.Background(), base, &out, &errBuf), errBuf.String())
	assert.Equal(t, "> eco bsu\ne1\tb1\n", out.String())

	out.Reset()
	assert.Equal(t, 2, RunContext(context.Background(), append(base, fa("mja")), &out, &errBuf))

	out.Reset()
	assert.Equal(t, 0, RunContext(context.Background(), []string{"--version"}, &out, &errBuf))
	assert.Contains(t, out.String(), "cogs-bbh version")
}
