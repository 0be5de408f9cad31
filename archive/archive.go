package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/vstore/internal/pool"
)

// ErrUnsafePath is returned by Unpack for entries that would land outside
// the destination directory.
var ErrUnsafePath = errors.New("archive: entry escapes destination")

// ErrUnsupportedEntry is returned for entries that are neither regular files
// nor directories.
var ErrUnsupportedEntry = errors.New("archive: unsupported entry type")

// Options configures Pack.
type Options struct {
	// Compression of the output stream. Defaults to Gzip.
	Compression Compression

	// Level is the compression level. Zero selects the codec default.
	Level int
}

// Pack writes a deterministic compressed tarball of the tree rooted at dir to w.
func Pack(ctx context.Context, dir string, w io.Writer, optFns ...func(o *Options)) error {
	opts := Options{Compression: Gzip}
	for _, fn := range optFns {
		fn(&opts)
	}

	entries, err := Listing(dir, true)
	if err != nil {
		return err
	}

	cw, err := newWriter(w, opts.Compression, opts.Level)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)

	for _, rel := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addEntry(tw, dir, rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("archive: close tar: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("archive: close %s stream: %w", opts.Compression, err)
	}
	return nil
}

func addEntry(tw *tar.Writer, dir, rel string) error {
	full := filepath.Join(dir, rel)
	info, err := os.Lstat(full)
	if err != nil {
		return err
	}

	hdr := &tar.Header{
		Name:    filepath.ToSlash(rel),
		Mode:    int64(info.Mode().Perm()),
		ModTime: time.Unix(0, 0).UTC(),
		Format:  tar.FormatPAX,
	}

	switch {
	case info.IsDir():
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
		return tw.WriteHeader(hdr)
	case info.Mode().IsRegular():
		hdr.Typeflag = tar.TypeReg
		hdr.Size = info.Size()
	default:
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedEntry, rel, info.Mode().Type())
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	f, err := os.Open(full)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := pool.Copy(tw, f); err != nil {
		return fmt.Errorf("archive: copy %s: %w", rel, err)
	}
	return nil
}

// Unpack extracts the archive read from r into dest, creating dest if needed.
// The compression is detected from the stream.
func Unpack(ctx context.Context, r io.Reader, dest string) error {
	zr, err := newReader(r)
	if err != nil {
		return fmt.Errorf("archive: open stream: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("archive: read entry: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(hdr)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(tr, target, hdr); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedEntry, hdr.Name)
		}
	}
}

func dirMode(hdr *tar.Header) os.FileMode {
	return os.FileMode(hdr.Mode).Perm() | 0o700
}

func writeFile(r io.Reader, target string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
	if err != nil {
		return err
	}
	if _, err := pool.CopyN(f, r, hdr.Size); err != nil {
		_ = f.Close()
		return fmt.Errorf("archive: extract %s: %w", hdr.Name, err)
	}
	return f.Close()
}

func safeJoin(dest, name string) (string, error) {
	if name == "" || path.IsAbs(name) || slices.Contains(strings.Split(name, "/"), "..") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	clean := path.Clean(name)
	if clean == "." {
		return dest, nil
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), nil
}

// Listing returns the paths below dir, relative to it and sorted. Dotfiles are
// included. Directories are included only when includeDirs is set.
func Listing(dir string, includeDirs bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if d.IsDir() && !includeDirs {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
