// File: internal/archive/builder.go

// Package archive builds zip bundles from module directories and compares them by content.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// BuildInfo describes a freshly written bundle
type BuildInfo struct {
	Path    string
	Entries int
	Size    int64
	// Entries left out of the bundle: dangling symlinks, links to directories, sockets, devices
	Skipped []string
}

// Build writes a zip archive at destPath containing every file and directory under sourceDir.
// Entry names are relative to sourceDir with forward slashes; directories get a trailing "/".
// Entries are written in lexical walk order so identical trees produce identically ordered archives.
// A symlink to a regular file is stored as a regular entry holding the target's content.
func Build(sourceDir, destPath string) (BuildInfo, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !info.IsDir() {
		return BuildInfo{}, fmt.Errorf("source %s is not a directory", sourceDir)
	}
	// WalkDir does not descend into a root that is itself a symlink
	root, err := filepath.EvalSymlinks(sourceDir)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	zipFile, err := os.Create(destPath)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("failed to create ZIP file: %w", err)
	}

	zipWriter := zip.NewWriter(zipFile)
	entries := 0
	var skipped []string

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		if relPath == "." {
			return nil
		}
		entryName := filepath.ToSlash(relPath)

		if d.IsDir() {
			if _, err := zipWriter.Create(entryName + "/"); err != nil {
				return fmt.Errorf("failed to create directory entry: %w", err)
			}
			entries++
			return nil
		}

		var fileInfo fs.FileInfo
		switch {
		case d.Type().IsRegular():
			fileInfo, err = d.Info()
		case d.Type()&fs.ModeSymlink != 0:
			// Stat follows the link; a dangling link fails here and is skipped
			fileInfo, err = os.Stat(path)
			if err != nil || !fileInfo.Mode().IsRegular() {
				skipped = append(skipped, entryName)
				return nil
			}
		default:
			skipped = append(skipped, entryName)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}

		if err := addFile(zipWriter, path, entryName, fileInfo); err != nil {
			return err
		}
		entries++
		return nil
	})

	closeErr := zipWriter.Close()
	if fileErr := zipFile.Close(); closeErr == nil {
		closeErr = fileErr
	}

	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(destPath)
		return BuildInfo{}, fmt.Errorf("failed to bundle %s: %w", sourceDir, err)
	}

	stat, err := os.Stat(destPath)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("failed to stat bundle: %w", err)
	}

	return BuildInfo{Path: destPath, Entries: entries, Size: stat.Size(), Skipped: skipped}, nil
}

func addFile(zipWriter *zip.Writer, path, entryName string, fileInfo fs.FileInfo) error {
	header, err := zip.FileInfoHeader(fileInfo)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = entryName
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	defer src.Close()

	if _, err := io.Copy(writer, src); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	return nil
}
