package export

import (
	"os"
	"path/filepath"
)

// workDir is a scoped scratch directory for one export run. Close removes
// the directory and everything in it; callers defer it immediately so
// partial shard files never survive a failed or cancelled run.
type workDir struct {
	root string
}

func newWorkDir() (*workDir, error) {
	root, err := os.MkdirTemp("", "stationpipe-export-")
	if err != nil {
		return nil, err
	}
	return &workDir{root: root}, nil
}

// Path returns the absolute path for a file named name inside the directory.
func (d *workDir) Path(name string) string {
	return filepath.Join(d.root, name)
}

func (d *workDir) Close() error {
	return os.RemoveAll(d.root)
}
