package backing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"p9e.in/plotdesk/pkg/inventory"
)

// File keeps the inventory in a local .xlsx workbook
type File struct {
	Path      string
	SheetName string
}

// NewFile returns a workbook backend for path
func NewFile(path, sheetName string) *File {
	return &File{Path: path, SheetName: sheetName}
}

func (b *File) Name() string { return "file:" + b.Path }

// Read returns an empty sheet when the workbook does not exist yet
func (b *File) Read(ctx context.Context) (inventory.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return inventory.Sheet{}, err
	}
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return inventory.Sheet{}, nil
	}
	if err != nil {
		return inventory.Sheet{}, fmt.Errorf("read workbook: %w", err)
	}
	return DecodeXLSX(data, b.SheetName)
}

// Write replaces the workbook through a temp file and rename
func (b *File) Write(ctx context.Context, s inventory.Sheet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeXLSX(s, b.SheetName)
	if err != nil {
		return err
	}
	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".plots-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		return fmt.Errorf("replace workbook: %w", err)
	}
	return nil
}
