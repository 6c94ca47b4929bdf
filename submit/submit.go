// Package submit saves rendered scripts and hands them to the sbatch
// client.
package submit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/airbloc/logger"
	"github.com/pkg/errors"
)

var log = logger.New("submit")

// Saver writes scripts into a directory without clobbering the output of
// earlier runs.
type Saver struct {
	// Dir is the target directory, created on demand.
	Dir string

	// Overwrite replaces an existing script instead of renaming the new
	// one.
	Overwrite bool
}

// Plan is a resolved save destination.
type Plan struct {
	// Path is where Commit will write.
	Path string

	// Renamed is set when the file name was taken and a --N suffix was
	// appended.
	Renamed bool

	// Replaces is set when Commit will overwrite an existing file.
	Replaces bool
}

// Plan resolves the destination for a script file. When the name is taken
// and Overwrite is off, the script gets the next free --N suffix so the
// earlier script stays around.
func (s Saver) Plan(fileName string) (Plan, error) {
	path := filepath.Join(s.Dir, fileName)
	_, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return Plan{Path: path}, nil
	case err != nil:
		return Plan{}, errors.Wrap(err, "stat script")
	case s.Overwrite:
		return Plan{Path: path, Replaces: true}, nil
	}
	next, err := s.nextSuffix(fileName)
	if err != nil {
		return Plan{}, err
	}
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	renamed := fmt.Sprintf("%s--%d%s", stem, next, ext)
	return Plan{Path: filepath.Join(s.Dir, renamed), Renamed: true}, nil
}

// nextSuffix scans the directory for name--N variants of fileName and
// returns the first unused N.
func (s Saver) nextSuffix(fileName string) (int, error) {
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(stem) + `--(\d+)` + regexp.QuoteMeta(ext) + `$`)

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, errors.Wrap(err, "scan scripts")
	}
	max := 0
	for _, e := range entries {
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max + 1, nil
}

// Commit writes the script at the planned path.
func (s Saver) Commit(p Plan, text string) error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return errors.Wrap(err, "create script dir")
	}
	if err := os.WriteFile(p.Path, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, "write script")
	}
	log.Verbose("Wrote {}", p.Path)
	return nil
}
