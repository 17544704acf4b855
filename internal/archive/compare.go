// File: internal/archive/compare.go
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

type Reason string

const (
	// A single entry was found in both archives with the same content
	ReasonMatched Reason = "matched"
	// An entry exists in both archives but the bytes differ
	ReasonFileDiff Reason = "mismatched-file-diff"
	// An entry of the first archive is missing from the second
	ReasonMissingFile Reason = "mismatched-missing-file"
	// Every entry of the first archive matched the second
	ReasonAllMatched Reason = "all-matched"
)

// ErrUnreadableTarget wraps failures to open or read the second archive given to Compare.
// Errors without it come from the first archive
var ErrUnreadableTarget = errors.New("archive compared against is unreadable")

type Comparison struct {
	Identical       bool   `json:"identical" yaml:"identical"`
	Reason          Reason `json:"reason" yaml:"reason"`
	MismatchedEntry string `json:"mismatchedEntry,omitempty" yaml:"mismatchedEntry,omitempty"`
}

// Compare reports whether every entry of archive a exists in archive b with identical bytes.
// Entries are visited in a's internal order and the first mismatch wins.
//
// The comparison is one-sided: entries that only exist in b are never looked at,
// so removing a file from a module is not detected when a is the new bundle.
// Archive metadata (timestamps, permissions, compression) is ignored.
func Compare(a, b string) (Comparison, error) {
	aReader, err := zip.OpenReader(a)
	if err != nil {
		return Comparison{}, fmt.Errorf("failed to open archive %s: %w", a, err)
	}
	defer aReader.Close()

	bReader, err := zip.OpenReader(b)
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: failed to open archive %s: %w", ErrUnreadableTarget, b, err)
	}
	defer bReader.Close()

	// Later duplicates shadow earlier ones, matching how zip readers resolve names
	bEntries := make(map[string]*zip.File, len(bReader.File))
	for _, f := range bReader.File {
		bEntries[f.Name] = f
	}

	for _, aFile := range aReader.File {
		result, err := compareEntry(aFile, bEntries[aFile.Name])
		if err != nil {
			return Comparison{}, err
		}
		if !result.Identical {
			return result, nil
		}
	}

	return Comparison{Identical: true, Reason: ReasonAllMatched}, nil
}

func compareEntry(aFile, bFile *zip.File) (Comparison, error) {
	if bFile == nil {
		return Comparison{Reason: ReasonMissingFile, MismatchedEntry: aFile.Name}, nil
	}

	aData, err := readEntry(aFile)
	if err != nil {
		return Comparison{}, err
	}
	bData, err := readEntry(bFile)
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: %w", ErrUnreadableTarget, err)
	}

	if !bytes.Equal(aData, bData) {
		return Comparison{Reason: ReasonFileDiff, MismatchedEntry: aFile.Name}, nil
	}
	return Comparison{Identical: true, Reason: ReasonMatched, MismatchedEntry: ""}, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", f.Name, err)
	}
	return data, nil
}
