// internal/cluster/checkpoint.go
package cluster

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cogs/internal/edgeset"
)

// Checkpoint is the working state after the last committed organism.
type Checkpoint struct {
	Completed int          `yaml:"completed"`
	Organisms []string     `yaml:"organisms"`
	Edges     *edgeset.Set `yaml:"-"`
}

// Checkpointer persists the working set between process runs. Load returns
// (nil, nil) when nothing was saved yet.
type Checkpointer interface {
	Load() (*Checkpoint, error)
	Save(cp *Checkpoint) error
}

// FileCheckpoint keeps progress.yaml and working.pairs in Dir.
type FileCheckpoint struct {
	Dir string
}

const (
	progressFile = "progress.yaml"
	pairsFile    = "working.pairs"
)

func (f FileCheckpoint) Load() (*Checkpoint, error) {
	raw, err := os.ReadFile(filepath.Join(f.Dir, progressFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := yaml.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", progressFile, err)
	}
	fh, err := os.Open(filepath.Join(f.Dir, pairsFile))
	if err != nil {
		return nil, fmt.Errorf("checkpoint edges: %w", err)
	}
	defer fh.Close()
	if cp.Edges, err = edgeset.ReadPairList(fh); err != nil {
		return nil, fmt.Errorf("checkpoint edges: %w", err)
	}
	if cp.Completed != len(cp.Organisms) {
		return nil, fmt.Errorf("checkpoint lists %d organisms for %d completed rounds", len(cp.Organisms), cp.Completed)
	}
	return &cp, nil
}

// Save writes the edges first and the progress marker last, each through a
// rename, so a crash never pairs new progress with stale edges.
func (f FileCheckpoint) Save(cp *Checkpoint) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	var edges bytes.Buffer
	if err := edgeset.WritePairList(&edges, cp.Edges); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(f.Dir, pairsFile), edges.Bytes()); err != nil {
		return err
	}
	progress, err := yaml.Marshal(cp)
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(f.Dir, progressFile), progress)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
