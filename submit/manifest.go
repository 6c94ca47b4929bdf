package submit

import (
	"bufio"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/therne/errorist"
)

// Entry is one manifest record: a script that was generated and, when a
// job id is present, submitted.
type Entry struct {
	Name        string                 `json:"name"`
	Path        string                 `json:"path"`
	JobID       int                    `json:"job_id,omitempty"`
	Variables   map[string]interface{} `json:"variables,omitempty"`
	SubmittedAt time.Time              `json:"submitted_at"`
}

// Manifest is an append-only JSON-lines record of generated scripts, so
// a sweep can be traced back to the variable sets it ran with.
type Manifest struct {
	Path string
}

// Append adds entries to the manifest, creating the file on first use.
func (m Manifest) Append(entries ...Entry) (err error) {
	if m.Path == "" || len(entries) == 0 {
		return nil
	}
	f, err := os.OpenFile(m.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open manifest")
	}
	defer errorist.CloseWithErrCapture(f, &err, errorist.Wrapf("close manifest"))

	for _, e := range entries {
		line, err := jsoniter.Marshal(e)
		if err != nil {
			return errors.Wrap(err, "encode manifest entry")
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return errors.Wrap(err, "write manifest")
		}
	}
	return nil
}

// Read loads every entry of the manifest. A missing file is an empty
// manifest.
func (m Manifest) Read() (entries []Entry, err error) {
	f, err := os.Open(m.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "open manifest")
	}
	defer errorist.CloseWithErrCapture(f, &err, errorist.Wrapf("close manifest"))

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := jsoniter.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, errors.Wrap(err, "decode manifest entry")
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read manifest")
	}
	return entries, nil
}
