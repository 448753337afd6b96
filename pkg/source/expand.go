package source

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
)

// ExpandConfig controls how command-line arguments become a source list.
type ExpandConfig struct {
	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to include (0 = no limit).
	// Only applies to files found by walking a directory or a glob.
	MaxFileSize int64

	// FollowSymlinks includes symbolic links to files found while walking.
	FollowSymlinks bool

	// NoIgnore disables .gitignore handling at the root of walked directories.
	NoIgnore bool

	// IncludeBinary keeps files that look binary (NUL bytes in the first 8KB)
	// and are not a supported compressed or PDF format.
	IncludeBinary bool
}

// Expand turns arguments into an ordered, de-duplicated list of paths.
//
// Arguments are processed in order. Directories are walked in lexical order,
// glob patterns (doublestar syntax, e.g. "logs/**/*.log") are expanded and
// sorted, and anything else - including paths that do not exist - is passed
// through unchanged so that the scan reports it as a failed source.
// "-" stands for standard input and is passed through.
func Expand(ctx context.Context, args []string, cfg ExpandConfig) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := p
		if p != StdinID {
			key = filepath.Clean(p)
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if arg == StdinID {
			add(arg)
			continue
		}

		if isGlob(arg) {
			paths, err := expandGlob(ctx, arg, cfg)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				add(p)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}

		paths, err := walkDir(ctx, arg, cfg)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			add(p)
		}
	}

	return out, nil
}

// isGlob reports whether arg contains glob meta characters.
func isGlob(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// expandGlob expands a doublestar pattern. Matched directories are walked.
func expandGlob(ctx context.Context, pattern string, cfg ExpandConfig) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var out []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			paths, err := walkDir(ctx, m, cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, paths...)
			continue
		}
		if !cfg.IncludeHidden && hasHiddenComponent(m) {
			continue
		}
		if eligible(m, info, cfg) {
			out = append(out, m)
		}
	}
	return out, nil
}

// walkDir collects eligible files below root in lexical order.
func walkDir(ctx context.Context, root string, cfg ExpandConfig) ([]string, error) {
	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	if !cfg.NoIgnore {
		gitignorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignorePath); err == nil {
			ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && !cfg.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !cfg.IncludeHidden && isHidden(d.Name()) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !cfg.FollowSymlinks {
			return nil
		}

		if ignore != nil {
			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(relPath) {
				return nil
			}
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil
		}
		if eligible(path, info, cfg) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// eligible applies the size and binary filters to a discovered file.
func eligible(path string, info os.FileInfo, cfg ExpandConfig) bool {
	if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
		return false
	}
	if cfg.IncludeBinary {
		return true
	}
	binary, err := isBinaryFile(path)
	return err == nil && !binary
}

// isBinaryFile reports whether a file looks binary and is not a format
// decode understands.
func isBinaryFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 8192)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	head = head[:n]

	if Detect(head) != FormatText {
		return false, nil
	}
	return bytes.IndexByte(head, 0) != -1, nil
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// hasHiddenComponent reports whether any element of path is hidden.
func hasHiddenComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
