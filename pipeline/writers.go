package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aluiziolira/go-catalog-crawler/models"
)

// CategoryOutput owns one category's output on disk: a directory holding the
// tabular file and an image subdirectory. It is created only after the
// category is known to have product refs, and exactly one pipeline writes
// to it.
type CategoryOutput struct {
	Name     string
	Dir      string
	ImageDir string
	CSVPath  string

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewCategoryOutput creates the category directory tree and the tabular
// file with its header row.
func NewCategoryOutput(runRoot, name string) (*CategoryOutput, error) {
	dir := filepath.Join(runRoot, name)
	imageDir := filepath.Join(dir, name+"_img")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create category directory %q: %w", imageDir, err)
	}

	csvPath := filepath.Join(dir, name+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(quoteRow(models.Columns())); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CategoryOutput{
		Name:     name,
		Dir:      dir,
		ImageDir: imageDir,
		CSVPath:  csvPath,
		file:     f,
		writer:   w,
	}, nil
}

// AppendRecord appends one record row to the tabular file.
func (o *CategoryOutput) AppendRecord(rec *models.ProductRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.writer.WriteString(quoteRow(rec.Row())); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	if err := o.writer.Flush(); err != nil {
		return fmt.Errorf("flush csv record: %w", err)
	}
	return nil
}

// StoreImage writes image bytes into the image subdirectory and returns the
// stored path.
func (o *CategoryOutput) StoreImage(filename string, data []byte) (string, error) {
	path := filepath.Join(o.ImageDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image %q: %w", path, err)
	}
	return path, nil
}

// Close flushes and closes the tabular file.
func (o *CategoryOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.writer.Flush(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return o.file.Close()
}

// quoteRow renders one CSV line with every field double-quoted. The output
// contract requires all fields quoted, which encoding/csv does not do, so
// rows are rendered directly.
func quoteRow(fields []string) string {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return b.String()
}
