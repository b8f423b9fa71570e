// SPDX-License-Identifier: MPL-2.0

package fscopy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stats summarises a CopyTree call.
type Stats struct {
	Files    int
	Dirs     int
	Bytes    int64
	Excluded int
	Dangling int
}

type copier struct {
	exclude Excluder
	stats   Stats
	// chain holds the resolved directories currently being copied, outermost
	// first. A link back into any of them would recurse forever.
	chain []string
}

// CopyTree copies src into dst, creating dst when needed and reusing
// directories that already exist. Symbolic links are followed; links whose
// target does not exist are skipped and counted in Stats.Dangling.
func CopyTree(src, dst string, exclude Excluder) (Stats, error) {
	c := &copier{exclude: exclude}

	info, err := os.Stat(src)
	if err != nil {
		return c.stats, fmt.Errorf("failed to stat copy source: %w", err)
	}
	if !info.IsDir() {
		return c.stats, fmt.Errorf("copy source %s is not a directory", src)
	}
	real, err := filepath.EvalSymlinks(src)
	if err != nil {
		return c.stats, fmt.Errorf("failed to resolve copy source: %w", err)
	}

	err = c.copyDir(real, dst, info.Mode().Perm())
	return c.stats, err
}

// copyDir copies the resolved directory src into dst.
func (c *copier) copyDir(src, dst string, perm fs.FileMode) error {
	c.chain = append(c.chain, src)
	defer func() { c.chain = c.chain[:len(c.chain)-1] }()

	if err := os.MkdirAll(dst, perm|0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dst, err)
	}
	c.stats.Dirs++

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if !Keep(filepath.ToSlash(rel), c.exclude) {
			c.stats.Excluded++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return c.copyLink(path, target)
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			c.stats.Dirs++
			return nil
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return c.copyFile(path, target, info)
		default:
			// Sockets, devices and pipes have no content to copy.
			return nil
		}
	})
}

// copyLink copies what a symlink points to.
func (c *copier) copyLink(path, target string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.stats.Dangling++
			return nil
		}
		return fmt.Errorf("failed to resolve link %s: %w", path, err)
	}

	if !info.IsDir() {
		return c.copyFile(path, target, info)
	}

	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("failed to resolve link %s: %w", path, err)
	}
	if c.loops(real, filepath.Dir(path)) {
		return nil
	}
	return c.copyDir(real, target, info.Mode().Perm())
}

// loops reports whether dir contains a directory that is being copied,
// including parent, the directory holding the link. Links to directories
// copied earlier, or elsewhere in the tree, are copied again.
func (c *copier) loops(dir, parent string) bool {
	if within(parent, dir) {
		return true
	}
	for _, active := range c.chain {
		if within(active, dir) {
			return true
		}
	}
	return false
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func (c *copier) copyFile(src, dst string, info fs.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
	}()

	n, err := io.Copy(out, in)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	c.stats.Files++
	c.stats.Bytes += n

	// Keep modification times so Nextflow's resume cache sees unchanged inputs.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
