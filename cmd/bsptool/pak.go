package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/blackbloc/pkg/pak"
)

func cmdPak(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: bsptool pak <list|extract> ...")
	}

	switch args[0] {
	case "list", "ls":
		return cmdPakList(args[1:])
	case "extract", "x":
		return cmdPakExtract(args[1:])
	default:
		return fmt.Errorf("unknown pak command: %s", args[0])
	}
}

func cmdPakList(args []string) error {
	fs := flag.NewFlagSet("pak list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: bsptool pak list <file.pak> [pattern]")
	}

	archive, err := pak.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	pattern := ""
	if fs.NArg() > 1 {
		pattern = fs.Arg(1)
	}

	count := listFiles(os.Stdout, archive, pattern, *limit)
	if pattern != "" {
		fmt.Fprintf(os.Stderr, "\n(%d files matched)\n", count)
	}
	if n := archive.Skipped(); n > 0 {
		fmt.Fprintf(os.Stderr, "(%d directory entries skipped)\n", n)
	}
	return nil
}

// matchName reports whether a glob matches the base name or a substring of the path.
func matchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	pattern = strings.ToLower(pattern)
	lower := strings.ToLower(name)
	if ok, _ := filepath.Match(pattern, filepath.Base(lower)); ok {
		return true
	}
	return strings.Contains(lower, pattern)
}

// listFiles prints matching names with their sizes.
func listFiles(w io.Writer, archive *pak.Archive, pattern string, limit int) int {
	count := 0
	for _, f := range archive.List() {
		if !matchName(pattern, f) {
			continue
		}
		if e, ok := archive.Stat(f); ok {
			fmt.Fprintf(w, "%10d  %s\n", e.Size, f)
		}
		count++
		if limit > 0 && count >= limit {
			break
		}
	}
	return count
}

func cmdPakExtract(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: bsptool pak extract <file.pak> <path> [output_dir]")
	}

	outputDir := "."
	if len(args) > 2 {
		outputDir = args[2]
	}

	archive, err := pak.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	paths, err := extract(archive, args[1], outputDir)
	for _, p := range paths {
		fmt.Printf("Extracted: %s\n", p)
	}
	if strings.Contains(args[1], "*") {
		fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", len(paths))
	}
	return err
}

// extract writes one file, or every file whose base name matches a glob,
// under outputDir. Glob extraction keeps the archive's directory layout.
func extract(archive *pak.Archive, path, outputDir string) ([]string, error) {
	if !strings.Contains(path, "*") {
		if !archive.Contains(path) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		base := filepath.Base(path)
		if !filepath.IsLocal(base) {
			return nil, fmt.Errorf("%w: %s", errUnsafePath, path)
		}
		out := filepath.Join(outputDir, base)
		if err := extractFile(archive, path, out); err != nil {
			return nil, err
		}
		return []string{out}, nil
	}

	pattern := strings.ToLower(path)
	var written []string
	var errs []error
	for _, f := range archive.List() {
		if ok, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(f))); !ok {
			continue
		}
		rel := filepath.FromSlash(f)
		if !filepath.IsLocal(rel) {
			errs = append(errs, fmt.Errorf("%w: %s", errUnsafePath, f))
			continue
		}
		out := filepath.Join(outputDir, rel)
		if err := extractFile(archive, f, out); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, out)
	}
	return written, errors.Join(errs...)
}

// errUnsafePath rejects archive names that would land outside the output directory.
var errUnsafePath = errors.New("entry escapes output directory")

func extractFile(archive *pak.Archive, name, out string) error {
	data, err := archive.Read(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}
