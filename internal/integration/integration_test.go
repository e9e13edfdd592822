// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cogs/internal/align"
	"cogs/internal/app"
	"cogs/pkg/api"
)

func write(t *testing.T, fn, data string) string {
	t.Helper()
	if err := os.WriteFile(fn, []byte(data), 0644); err != nil {
		t.Fatalf("write %s: %v", fn, err)
	}
	return fn
}

// fixture lays out four genomes and their hit tables. After three genomes
// e1/b1/m1 close a triangle; pfu's p1 then closes one with e2 and b2.
func fixture(t *testing.T) (dir string, args []string) {
	t.Helper()
	dir = t.TempDir()
	hits := filepath.Join(dir, "hits")
	if err := os.Mkdir(hits, 0o755); err != nil {
		t.Fatal(err)
	}
	genomes := []struct{ name, fasta string }{
		{"eco", ">e1 dnaK\nMGKIIGIDLGTTNS\n>e2 groL\nMAAKDVKFGNDARV\n"},
		{"bsu", ">b1\nMSKIIGIDLGTTNS\n>b2\nMAKEIKFSEEARR\n"},
		{"mja", ">m1\nMKIIGIDLGTTYS\n>m2\nMSLLEKAVK\n"},
		{"pfu", ">p1\nMAKQLIFDEEARR\n"},
	}
	var list []string
	for _, g := range genomes {
		write(t, filepath.Join(dir, g.name+".fa"), g.fasta)
		list = append(list, g.name)
	}
	write(t, filepath.Join(dir, "organisms.txt"), strings.Join(list, "\n")+"\n")

	tables := map[string]string{
		"eco__bsu": "e1;b1\ne2;b2\n",
		"bsu__eco": "b1;e1\nb2;e2\n",
		"eco__mja": "e1;m1\ne1;m2\n",
		"mja__eco": "m1;e1\n",
		"bsu__mja": "b1\tm1\t98.2\n",
		"mja__bsu": "m1\tb1\t98.0\nm2\tb2\t31.0\n",
		"eco__pfu": "e2 p1\n",
		"pfu__eco": "p1 e2\n",
		"bsu__pfu": "b2 p1\n",
		"pfu__bsu": "p1 b2\n",
		"mja__pfu": "",
		"pfu__mja": "",
	}
	for name, body := range tables {
		write(t, filepath.Join(hits, name), body)
	}
	return dir, []string{
		"--organisms", filepath.Join(dir, "organisms.txt"),
		"--hits", hits,
		"--env-file", write(t, filepath.Join(dir, "test.env"), ""),
		"--quiet",
	}
}

func TestEndToEndTSV(t *testing.T) {
	_, args := fixture(t)
	var out, errBuf bytes.Buffer
	code := app.Run(append(args, "-o", "tsv"), &out, &errBuf)
	if code != 0 {
		t.Fatalf("run exit %d, err=%s", code, errBuf.String())
	}
	want := "cog\tprotein_id\torganism\tname\n" +
		"1\t1\teco\te1\n1\t3\tbsu\tb1\n1\t5\tmja\tm1\n" +
		"2\t2\teco\te2\n2\t4\tbsu\tb2\n2\t7\tpfu\tp1\n"
	if out.String() != want {
		t.Fatalf("tsv:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRepeatedRunsAgree(t *testing.T) {
	_, args := fixture(t)
	run := func() string {
		var out, errB bytes.Buffer
		if code := app.Run(append(args, "-o", "json"), &out, &errB); code != 0 {
			t.Fatalf("exit %d err %s", code, errB.String())
		}
		return out.String()
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("outputs differ\nfirst: %s\nsecond:%s", a, b)
	}
}

func TestAlignmentAndSideOutputs(t *testing.T) {
	dir, args := fixture(t)
	edges := filepath.Join(dir, "working.pairs")
	prom := filepath.Join(dir, "cogs.prom")

	var mu sync.Mutex
	var seen []int
	fake := align.Func(func(_ context.Context, es []align.Entry) (string, error) {
		mu.Lock()
		seen = append(seen, len(es))
		mu.Unlock()
		var b strings.Builder
		for _, e := range es {
			b.WriteString(">" + e.Name + "\n" + e.Sequence + "\n")
		}
		return b.String(), nil
	})

	var out, errBuf bytes.Buffer
	code := app.RunWithHooks(context.Background(),
		append(args, "--aligner", "unused-aligner", "--align-workers", "2", "-o", "jsonl",
			"--dump-edges", edges, "--metrics-file", prom),
		&out, &errBuf, app.Hooks{Aligner: fake})
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errBuf.String())
	}
	if len(seen) != 2 {
		t.Fatalf("aligner called %d times", len(seen))
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("jsonl lines: %d", len(lines))
	}
	var c api.ClusterV1
	if err := json.Unmarshal([]byte(lines[1]), &c); err != nil {
		t.Fatal(err)
	}
	if c.COG != 2 || c.Size != 3 || !strings.Contains(c.Alignment, ">pfu|p1\nMAKQLIFDEEARR\n") {
		t.Fatalf("cluster 2: %+v", c)
	}

	if data, err := os.ReadFile(edges); err != nil || len(data) != 0 {
		t.Fatalf("working set should be fully consumed: %q %v", data, err)
	}
	data, err := os.ReadFile(prom)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"cogs_rounds_total 2", "cogs_clusters_created_total 2", `cogs_alignments_total{result="ok"} 2`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMissingHitTableFails(t *testing.T) {
	dir, args := fixture(t)
	if err := os.Remove(filepath.Join(dir, "hits", "mja__pfu")); err != nil {
		t.Fatal(err)
	}
	var out, errBuf bytes.Buffer
	code := app.Run(args, &out, &errBuf)
	if code != 3 {
		t.Fatalf("want exit 3, got %d", code)
	}
	if n := strings.Count(errBuf.String(), "organism pair mja/pfu"); n != 1 {
		t.Fatalf("error should name the pair once, got %d: %s", n, errBuf.String())
	}
}

func TestNoClusterExitCode(t *testing.T) {
	dir, args := fixture(t)
	// Only two organisms: no round runs.
	write(t, filepath.Join(dir, "organisms.txt"), "eco\nbsu\n")
	var out, errBuf bytes.Buffer
	if code := app.Run(append(args, "--no-cluster-exit-code", "4"), &out, &errBuf); code != 4 {
		t.Fatalf("want exit 4, got %d (%s)", code, errBuf.String())
	}
}

func TestUsageErrors(t *testing.T) {
	var out, errBuf bytes.Buffer
	if code := app.Run([]string{"--bogus"}, &out, &errBuf); code != 2 {
		t.Fatalf("unknown flag: exit %d", code)
	}
	out.Reset()
	if code := app.Run([]string{"-h"}, &out, &errBuf); code != 0 || !strings.Contains(out.String(), "--hits") {
		t.Fatalf("help: exit %d, %q", code, out.String())
	}
	_, args := fixture(t)
	if code := app.Run(append(args, "-o", "xml"), &out, &errBuf); code != 2 {
		t.Fatalf("bad format: exit %d", code)
	}
}
