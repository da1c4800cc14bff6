package tap

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Rincaro/cascading.utils/pkg/core"
)

const (
	DefaultBufferSize = 1024 * 1024 // 1MB
)

type Line struct {
	Filename string
	Number   int
	Text     string
}

// GlobSource reads every regular file matching a doublestar pattern.
type GlobSource struct {
	pattern    string
	bufferSize int
}

var _ Source = (*GlobSource)(nil)

func NewGlobSource(pattern string) *GlobSource {
	return &GlobSource{pattern: pattern, bufferSize: DefaultBufferSize}
}

func (s *GlobSource) Path() string { return s.pattern }

func (s *GlobSource) OpenForRead() ([]Line, error) {
	files, err := FindFiles(s.pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched the input pattern: %s", s.pattern)
	}

	var all []Line
	for _, file := range files {
		lines, err := ReadLines(file, s.bufferSize)
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return all, nil
}

// DirSink writes one tab-separated part file per partition into a directory.
type DirSink struct {
	dir string
}

var _ Sink = (*DirSink)(nil)

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

func (s *DirSink) Path() string { return s.dir }

func (s *DirSink) Exists() (bool, error) {
	_, err := os.Stat(s.dir)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *DirSink) MakeDirs() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *DirSink) Delete() error {
	return os.RemoveAll(s.dir)
}

func (s *DirSink) Modified() (time.Time, error) {
	info, err := os.Stat(s.dir)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// PartFile is the file name a partition is written to.
func PartFile(part int) string {
	return fmt.Sprintf("part-%04d.tsv", part)
}

func (s *DirSink) OpenForWrite(part int) (Collector, error) {
	file, err := os.Create(filepath.Join(s.dir, PartFile(part)))
	if err != nil {
		return nil, err
	}
	return &fileCollector{file: file, w: bufio.NewWriter(file)}, nil
}

type fileCollector struct {
	file   *os.File
	w      *bufio.Writer
	closed bool
}

func (c *fileCollector) Collect(kv core.KeyValue) error {
	if c.closed {
		return ErrCollectorClosed
	}
	_, err := fmt.Fprintf(c.w, "%s\t%s\n", kv.Key, kv.Value)
	return err
}

func (c *fileCollector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	flushErr := c.w.Flush()
	closeErr := c.file.Close()
	return errors.Join(flushErr, closeErr)
}

// FindFiles returns the regular files matching pattern. Directories and
// entries that cannot be stat'ed are skipped.
func FindFiles(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, name := range matches {
		info, err := os.Lstat(name)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, name)
		}
	}
	return files, nil
}

func ReadLines(filePath string, bufferSize ...int) ([]Line, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if len(bufferSize) == 0 {
		bufferSize = []int{DefaultBufferSize}
	}
	buffer := make([]byte, bufferSize[0])

	scanner := bufio.NewScanner(file)
	scanner.Buffer(buffer, bufferSize[0])

	var lines []Line
	for i := 1; scanner.Scan(); i++ {
		lines = append(lines, Line{
			Filename: filePath,
			Number:   i,
			Text:     scanner.Text(),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
