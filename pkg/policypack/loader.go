package policypack

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/gate"
)

// LoaderConfig controls which files a Loader reads.
type LoaderConfig struct {
	// MaxFileSize is the largest pack file accepted, in bytes.
	// Default: 1 MiB.
	MaxFileSize int64

	// Extensions lists the file extensions read from a directory.
	Extensions []string

	// SkipHidden skips dot files and dot directories.
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: 1 << 20,
		Extensions:  []string{".yaml", ".yml"},
		SkipHidden:  true,
	}
}

// Pack is a loaded policy pack.
type Pack struct {
	RuleSet *gate.RuleSet

	// Files lists the files the pack was read from, in load order.
	Files []string

	// Digest is a short sha256 over the file contents. It changes whenever
	// any file of the pack changes.
	Digest string

	LoadedAt time.Time
}

// document is the on-disk form of one pack file.
type document struct {
	Name    string      `yaml:"name"`
	Version string      `yaml:"version"`
	Rules   []gate.Rule `yaml:"rules"`
}

// Loader reads policy packs from the file system.
type Loader struct {
	config *LoaderConfig
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &Loader{config: config}
}

// Load reads path as a single file or as a directory of pack files.
func (l *Loader) Load(path string) (*Pack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

// LoadFile reads a single pack file.
func (l *Loader) LoadFile(path string) (*Pack, error) {
	h := sha256.New()
	doc, err := l.readFile(path, h)
	if err != nil {
		return nil, err
	}
	return &Pack{
		RuleSet:  &gate.RuleSet{Name: doc.Name, Version: doc.Version, Rules: doc.Rules},
		Files:    []string{path},
		Digest:   hex.EncodeToString(h.Sum(nil))[:16],
		LoadedAt: time.Now(),
	}, nil
}

// LoadDir reads every pack file under dir and merges them into one rule set.
func (l *Loader) LoadDir(dir string) (*Pack, error) {
	files, err := l.collectFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &LoadError{FilePath: dir, Message: "no policy pack files found in directory"}
	}

	h := sha256.New()
	rs := &gate.RuleSet{}
	for _, f := range files {
		doc, err := l.readFile(f, h)
		if err != nil {
			return nil, err
		}
		if rs.Name == "" {
			rs.Name = doc.Name
		}
		if rs.Version == "" {
			rs.Version = doc.Version
		}
		rs.Rules = append(rs.Rules, doc.Rules...)
	}
	if rs.Name == "" {
		rs.Name = filepath.Base(dir)
	}

	return &Pack{
		RuleSet:  rs,
		Files:    files,
		Digest:   hex.EncodeToString(h.Sum(nil))[:16],
		LoadedAt: time.Now(),
	}, nil
}

func (l *Loader) readFile(path string, h io.Writer) (*document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}
	fmt.Fprintf(h, "%s\n", filepath.Base(path))
	h.Write(data)

	doc, err := decode(data)
	if err != nil {
		return nil, &ParseError{FilePath: path, Line: errorLine(err), Message: err.Error(), Cause: err}
	}
	return doc, nil
}

func decode(data []byte) (*document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	for i := range doc.Rules {
		doc.Rules[i].Comparator = comparator.NormalizeID(string(doc.Rules[i].Comparator))
	}
	return &doc, nil
}

// collectFiles walks dir in lexical order.
func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if l.config.SkipHidden && path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !l.hasValidExtension(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

func (l *Loader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range l.config.Extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{FilePath: path, Message: "path does not exist", Cause: err}
	case errors.Is(err, fs.ErrPermission):
		return &LoadError{FilePath: path, Message: "permission denied", Cause: err}
	default:
		return &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// errorLine extracts the first line number from a yaml error message.
func errorLine(err error) int {
	m := lineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
