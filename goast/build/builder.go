package build

import (
	"bytes"
	"io"
	"io/ioutil"
	"log"

	"github.com/nickng/goprefetch/goast"
	"github.com/pkg/errors"
)

// Builder builds type-checked syntax trees and metainfo.
type Builder interface {
	Build() (*goast.Info, error)
}

// Source is a named source file ready for parsing.
type Source struct {
	Name   string
	Reader io.Reader
}

// FileSrc is a set of filenames.
type FileSrc struct {
	Files []string
}

// FromFiles returns a non-nil Builder from a slice of filenames.
func FromFiles(files []string) Configurer {
	return newConfig(&FileSrc{Files: files})
}

// Sources returns a named reader for each file.
func (s *FileSrc) Sources() ([]Source, error) {
	var srcs []Source
	for _, f := range s.Files {
		b, err := ioutil.ReadFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read from file: %s", f)
		}
		srcs = append(srcs, Source{Name: f, Reader: bytes.NewReader(b)})
	}
	return srcs, nil
}

// CachedSrc is source file from a reader.
type CachedSrc struct {
	cached []byte
}

// FromReader returns a non-nil Builder for a reader.
// This is typically used for testing or building a temporary file.
func FromReader(r io.Reader) Configurer {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to read from reader"))
	}
	return newConfig(&CachedSrc{cached: b})
}

// Sources returns a single unnamed source for the cached content.
func (s *CachedSrc) Sources() ([]Source, error) {
	return []Source{{Name: "tmp.go", Reader: bytes.NewReader(s.cached)}}, nil
}
