// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/telekom/tracemap/internal/logger"
)

// FileLoader reads destinations from a CSV file without header.
// The first column of every row is a destination, further columns are
// ignored. Empty rows and rows starting with # are skipped.
type FileLoader struct {
	path string
	fsys fs.FS
}

func NewFileLoader(cfg *Config) *FileLoader {
	return &FileLoader{
		path: cfg.Loader.File.Path,
		fsys: os.DirFS(filepath.Dir(cfg.Loader.File.Path)),
	}
}

// Load returns the destinations of the file in file order.
func (f *FileLoader) Load(ctx context.Context) (destinations []string, err error) {
	log := logger.FromContext(ctx).With("path", f.path)
	if f.path == "" {
		return nil, ErrInvalidLoaderFilePath
	}

	file, err := f.fsys.Open(filepath.Base(f.path))
	if err != nil {
		log.ErrorContext(ctx, "Failed to open destinations file", "error", err)
		return nil, fmt.Errorf("failed to open destinations file: %w", err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.ErrorContext(ctx, "Failed to close destinations file", "error", cerr)
		}
		err = errors.Join(err, cerr)
	}()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	r.TrimLeadingSpace = true
	for {
		record, rErr := r.Read()
		if errors.Is(rErr, io.EOF) {
			break
		}
		if rErr != nil {
			log.ErrorContext(ctx, "Failed to parse destinations file", "error", rErr)
			return nil, fmt.Errorf("failed to parse destinations file: %w", rErr)
		}
		if d := strings.TrimSpace(record[0]); d != "" {
			destinations = append(destinations, d)
		}
	}

	log.DebugContext(ctx, "Destinations loaded", "count", len(destinations))
	return destinations, nil
}

// ResolveDestinations completes the destinations of the config. The
// destinations of the loader are appended to the configured ones,
// duplicates are dropped and the limit is applied.
func (c *Config) ResolveDestinations(ctx context.Context, loader *FileLoader) error {
	all := c.Destinations
	if c.HasLoader() {
		loaded, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		all = append(all, loaded...)
	}

	seen := make(map[string]struct{}, len(all))
	unique := make([]string, 0, len(all))
	for _, d := range all {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	if len(unique) == 0 {
		return ErrNoDestinations
	}
	if c.Limit > 0 && len(unique) > c.Limit {
		unique = unique[:c.Limit]
	}
	c.Destinations = unique
	return nil
}
