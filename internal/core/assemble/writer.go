package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vharkusha/textract-bot/internal/core/extract"
)

// OutputFile is one written result artifact, or the per-file failure that
// prevented writing it.
type OutputFile struct {
	// Key is the entry's display key.
	Key string

	// Name is the artifact filename presented to the user (<base>.txt).
	Name string

	// Path is where the artifact was written; empty when Err is set.
	Path string

	Err error
}

// WriteFiles writes each successful entry's text to dir as a UTF-8
// <basename>.txt, resolving basename collisions with a numeric suffix.
// A write failure for one entry never aborts its siblings; it is recorded
// on that entry's OutputFile.
func (a *Assembler) WriteFiles(entries []extract.Entry, dir string) ([]OutputFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	used := make(map[string]struct{}, len(entries))
	out := make([]OutputFile, 0, len(entries))

	for _, e := range entries {
		if e.Err != nil {
			out = append(out, OutputFile{Key: e.Key, Err: e.Err})
			continue
		}

		name := outputName(used, e.Key)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(e.Text), 0o644); err != nil {
			out = append(out, OutputFile{Key: e.Key, Name: name, Err: err})
			continue
		}
		out = append(out, OutputFile{Key: e.Key, Name: name, Path: path})
	}
	return out, nil
}

// outputName turns a display key into a unique .txt filename. Distinct keys
// can still collide once their extensions are replaced ("a.png" and
// "a.jpg" both want a.txt), so uniqueness is re-checked here.
func outputName(used map[string]struct{}, key string) string {
	base := strings.TrimSuffix(key, filepath.Ext(key))
	name := base + ".txt"
	for i := 1; ; i++ {
		if _, taken := used[name]; !taken {
			used[name] = struct{}{}
			return name
		}
		name = fmt.Sprintf("%s_%d.txt", base, i)
	}
}
