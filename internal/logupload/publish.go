// SPDX-License-Identifier: MPL-2.0

package logupload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

type (
	// NameSource resolves the platform execution name used as the run
	// directory. It reports false when the name cannot be determined.
	NameSource interface {
		ExecutionName(ctx context.Context, token string) (string, bool)
	}

	// Publisher uploads a run's log to Base/SubPath/<execution name>/FileName.
	Publisher struct {
		Names    NameSource
		Uploader Uploader
		Base     string
		SubPath  string
		FileName string
	}

	// Report describes what Publish did.
	Report struct {
		// Uploaded is true when the log was stored at Location.
		Uploaded bool
		// Skipped is true when the log existed but no run name was available.
		Skipped  bool
		Location Location
		Bytes    int64
	}
)

// Publish uploads logPath if it exists. A missing log, an empty Base and an
// unknown run name are not errors; upload failures are.
func (p *Publisher) Publish(ctx context.Context, token, logPath string) (Report, error) {
	info, err := os.Stat(logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no log file to upload", "path", logPath)
			return Report{}, nil
		}
		return Report{}, fmt.Errorf("failed to stat log file: %w", err)
	}

	if p.Base == "" {
		slog.Info("Skipping logs upload, no log location configured")
		return Report{Skipped: true}, nil
	}

	name, ok := p.Names.ExecutionName(ctx, token)
	if !ok {
		slog.Info("Skipping logs upload, failed to get execution name")
		return Report{Skipped: true}, nil
	}

	loc, err := Compose(p.Base, p.SubPath, name, p.FileName)
	if err != nil {
		return Report{}, err
	}

	f, err := os.Open(logPath)
	if err != nil {
		return Report{}, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	slog.Info("Uploading .nextflow.log to remote", "destination", loc.String())
	if err := p.Uploader.Upload(ctx, loc, f, info.Size()); err != nil {
		return Report{Location: loc}, err
	}
	return Report{Uploaded: true, Location: loc, Bytes: info.Size()}, nil
}
