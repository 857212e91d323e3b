package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aymanbagabas/go-udiff"
	"github.com/loopedtheme/looped/internal/emit"
)

// Stale describes an artifact whose file on disk differs from what a build
// would write.
type Stale struct {
	Format  emit.Format
	Path    string
	Missing bool
	Diff    string // unified diff, disk -> fresh
}

// Check compiles in memory and compares every artifact with the file on
// disk. Nothing is written. Formats that fail to emit are reported through
// the result, as in Build.
func (b *Builder) Check(formats []emit.Format) ([]Stale, *Result, error) {
	res, err := b.Compile(formats)
	if err != nil {
		return nil, nil, err
	}

	var stale []Stale
	for _, f := range formats {
		for _, a := range res.Artifacts[f] {
			path := b.Path(a)
			current, err := os.ReadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				stale = append(stale, Stale{
					Format:  f,
					Path:    path,
					Missing: true,
					Diff:    udiff.Unified("/dev/null", path, "", string(a.Data)),
				})
				continue
			}
			if err != nil {
				return nil, res, fmt.Errorf("read %s: %w", path, err)
			}
			if string(current) == string(a.Data) {
				continue
			}
			stale = append(stale, Stale{
				Format: f,
				Path:   path,
				Diff:   udiff.Unified(path, path+" (generated)", string(current), string(a.Data)),
			})
		}
	}
	return stale, res, res.Err()
}
