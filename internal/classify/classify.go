// Package classify decides which local files are safe to upload.
package classify

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/deusflow/datatools/internal/logger"
)

const (
	VerdictUpload = "upload"
	VerdictSkip   = "skip"
)

// sniffBytes is how much of each file is scanned for blocked keywords.
const sniffBytes = 2000

type Rules struct {
	AllowedExt      map[string]bool
	MaxBytes        int64
	BlockedKeywords []string
}

func DefaultRules() Rules {
	return Rules{
		AllowedExt: map[string]bool{
			".pdf":  true,
			".docx": true,
			".doc":  true,
			".txt":  true,
			".md":   true,
		},
		MaxBytes:        10 * 1024 * 1024,
		BlockedKeywords: []string{"credential", "password", "private", "secret", "ssn"},
	}
}

type Result struct {
	Path    string
	Ext     string
	Size    int64
	Verdict string
	Reasons []string
}

// Row renders the result as a CSV record.
func (r Result) Row() []string {
	return []string{r.Path, r.Ext, strconv.FormatInt(r.Size, 10), r.Verdict, strings.Join(r.Reasons, ";")}
}

var Header = []string{"path", "ext", "size_bytes", "verdict", "reasons"}

type Classifier struct {
	rules Rules
}

func New(rules Rules) *Classifier {
	kws := make([]string, 0, len(rules.BlockedKeywords))
	for _, kw := range rules.BlockedKeywords {
		kws = append(kws, strings.ToLower(kw))
	}
	sort.Strings(kws)
	rules.BlockedKeywords = kws
	return &Classifier{rules: rules}
}

// Inspect applies every rule to one file. Reasons accumulate; any failed rule
// except stat_failed and unreadable turns the verdict into skip.
func (c *Classifier) Inspect(path string) Result {
	ext := suffix(path)
	res := Result{Path: path, Ext: ext, Verdict: VerdictUpload}

	if !c.rules.AllowedExt[strings.ToLower(ext)] {
		res.skip("ext:" + ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Reasons = append(res.Reasons, "stat_failed")
	} else {
		res.Size = info.Size()
		if c.rules.MaxBytes > 0 && res.Size > c.rules.MaxBytes {
			res.skip("size:" + strconv.FormatInt(res.Size, 10))
		}
	}

	head, err := readHead(path, sniffBytes)
	if err != nil {
		res.Reasons = append(res.Reasons, "unreadable")
		return res
	}
	text := bytes.ToLower(head)
	for _, kw := range c.rules.BlockedKeywords {
		if bytes.Contains(text, []byte(kw)) {
			res.skip("keyword:" + kw)
		}
	}
	return res
}

// suffix is the extension of the base name; dotfiles like .env have none.
func suffix(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return ext
}

func (r *Result) skip(reason string) {
	r.Verdict = VerdictSkip
	r.Reasons = append(r.Reasons, reason)
}

func readHead(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, n))
}

// ClassifyDir inspects every regular file (or symlink to one) under root in lexical order.
func (c *Classifier) ClassifyDir(root string) ([]Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var results []Result
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Cannot access path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !isRegularFile(path, d) {
			return nil
		}
		r := c.Inspect(path)
		logger.Debug("Classified file", "path", path, "verdict", r.Verdict, "reasons", strings.Join(r.Reasons, ";"))
		results = append(results, r)
		return nil
	})
	return results, err
}

// isRegularFile reports regular files, following symlinks to files.
// Symlinked directories are not descended into.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteCSV writes the header and one row per result.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path (and its parent directories) and writes results to it.
func WriteCSVFile(path string, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Counts returns how many results got each verdict.
func Counts(results []Result) (upload, skip int) {
	for _, r := range results {
		if r.Verdict == VerdictSkip {
			skip++
		} else {
			upload++
		}
	}
	return upload, skip
}
