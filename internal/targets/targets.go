// Package targets produces the list of store paths a run scans.
package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// Options selects exactly one target source.
type Options struct {
	// Path is a single store path
	Path string

	// PathsFile is a file of newline-separated store paths
	PathsFile string

	// HydraEvalURL is a Hydra evaluation whose outputs should be scanned
	HydraEvalURL string
}

// Collect reads the targets from the source selected in opts.
// The returned list may be empty; emptiness is judged by the caller.
func Collect(opts Options) ([]string, error) {
	set := 0
	for _, v := range []string{opts.Path, opts.PathsFile, opts.HydraEvalURL} {
		if v != "" {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, fmt.Errorf("please use one of --path, --paths or --hydra-eval-url: %w", narscan.ErrInvalidConfig)
	case set > 1:
		return nil, fmt.Errorf("--path, --paths and --hydra-eval-url are mutually exclusive: %w", narscan.ErrInvalidConfig)
	}

	switch {
	case opts.Path != "":
		return FromPath(opts.Path), nil
	case opts.PathsFile != "":
		return FromFile(os.DirFS("."), opts.PathsFile)
	default:
		return FromHydraEval(opts.HydraEvalURL)
	}
}

// FromPath returns the single-target list for p.
func FromPath(p string) []string {
	return []string{strings.TrimSpace(p)}
}

// FromFile reads newline-separated paths from name within fsys.
// Names fsys cannot address (absolute, or escaping with "..") are opened
// from the host filesystem instead.
func FromFile(fsys fs.FS, name string) ([]string, error) {
	var (
		f   io.ReadCloser
		err error
	)
	if fsys == nil || !fs.ValidPath(name) {
		f, err = os.Open(name)
	} else {
		f, err = fsys.Open(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open paths file: %w", err)
	}
	defer f.Close()

	paths, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read paths file %s: %w", name, err)
	}
	return paths, nil
}

// Parse reads one path per line. Surrounding whitespace is trimmed; blank
// lines and lines starting with '#' are skipped.
func Parse(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

var errHydraUnsupported = errors.New("reading output paths from Hydra eval URLs is currently unsupported")

// FromHydraEval would list the output paths of a Hydra evaluation.
func FromHydraEval(url string) ([]string, error) {
	return nil, fmt.Errorf("%w: %w", errHydraUnsupported, narscan.ErrNotImplemented)
}
