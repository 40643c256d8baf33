package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jaeles-project/sitemirror/stringset"
)

// Output is an append-only line file that never writes the same line twice,
// including lines already present when it was opened.
type Output struct {
	mu     sync.Mutex
	f      *os.File
	filter *stringset.StringFilter
}

func NewOutput(folder, filename string) (*Output, error) {
	return NewOutputPath(filepath.Join(folder, filename))
}

func NewOutputPath(filePath string) (*Output, error) {
	abspath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abspath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(abspath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", abspath, err)
	}

	out := &Output{
		f:      f,
		filter: stringset.NewExactStringFilter(),
	}
	out.loadExisting(abspath)
	return out, nil
}

// WriteToFile appends msg unless it is blank or was written before.
func (o *Output) WriteToFile(msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.f == nil || o.filter.Duplicate(msg) {
		return
	}
	if _, err := o.f.WriteString(msg + "\n"); err != nil {
		Logger.Debugf("output write failed: %s", err)
	}
}

func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.f != nil {
		_ = o.f.Close()
		o.f = nil
	}
}

func (o *Output) loadExisting(path string) {
	reader, err := os.Open(path)
	if err != nil {
		return
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		o.filter.Duplicate(line)
	}
}
