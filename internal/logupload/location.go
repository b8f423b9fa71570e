// SPDX-License-Identifier: MPL-2.0

package logupload

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Supported location schemes.
const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

var (
	// ErrInvalidLocation is returned for base URIs that cannot hold logs.
	ErrInvalidLocation = errors.New("invalid log location")
	// ErrInvalidSegment is returned when a path segment is empty or would
	// escape its parent.
	ErrInvalidSegment = errors.New("invalid log path segment")
)

// Location addresses an object. For s3 it is a bucket and key; for file the
// bucket is empty and Key is an absolute slash-separated path.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// String renders the location as a URI.
func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return "file://" + l.Key
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// ParseBase parses an s3://bucket[/prefix] or file:///dir URI.
func ParseBase(base string) (Location, error) {
	u, err := url.Parse(base)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q: %w", ErrInvalidLocation, base, err)
	}

	switch u.Scheme {
	case SchemeS3:
		if u.Host == "" {
			return Location{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidLocation, base)
		}
		return Location{Scheme: SchemeS3, Bucket: u.Host, Key: strings.Trim(u.Path, "/")}, nil
	case SchemeFile:
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, fmt.Errorf("%w: %q must be file:///absolute/path", ErrInvalidLocation, base)
		}
		if !path.IsAbs(u.Path) {
			return Location{}, fmt.Errorf("%w: %q must be file:///absolute/path", ErrInvalidLocation, base)
		}
		return Location{Scheme: SchemeFile, Key: path.Clean(u.Path)}, nil
	default:
		return Location{}, fmt.Errorf("%w: unsupported scheme %q (use s3:// or file://)", ErrInvalidLocation, u.Scheme)
	}
}

// Compose joins base, subPath, runName and fileName into the location of a
// run's log. subPath may hold several segments; runName and fileName must be
// single segments.
func Compose(base, subPath, runName, fileName string) (Location, error) {
	loc, err := ParseBase(base)
	if err != nil {
		return Location{}, err
	}

	parts := []string{loc.Key}
	for _, seg := range strings.Split(strings.Trim(subPath, "/"), "/") {
		if seg == "" {
			continue
		}
		if err := checkSegment(seg); err != nil {
			return Location{}, err
		}
		parts = append(parts, seg)
	}
	for _, seg := range []string{runName, fileName} {
		if err := checkSegment(seg); err != nil {
			return Location{}, err
		}
		parts = append(parts, seg)
	}

	loc.Key = path.Join(parts...)
	if loc.Scheme == SchemeS3 {
		loc.Key = strings.TrimPrefix(loc.Key, "/")
	}
	return loc, nil
}

func checkSegment(seg string) error {
	if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSegment, seg)
	}
	return nil
}
