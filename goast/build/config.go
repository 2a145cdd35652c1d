package build

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"io/ioutil"
	"log"

	"github.com/nickng/goprefetch/goast"
	"github.com/pkg/errors"
)

var ErrNoSource = errors.New("build: no source files")

// srcReader is a wrapper for source code which can be enumerated as
// named Sources.
type srcReader interface {
	Sources() ([]Source, error)
}

type Configurer interface {
	Builder
	Default() Configurer
	WithBuildLog(l io.Writer, flags int) Configurer
}

// Config represents a build configuration.
type Config struct {
	bldLog    io.Writer // Build log.
	bldLFlags int       // Build log flags.

	src srcReader // src points to the program source.
}

func newConfig(src srcReader) *Config {
	return &Config{
		bldLog:    ioutil.Discard,
		bldLFlags: log.LstdFlags,
		src:       src,
	}
}

// WithBuildLog adds build log to config.
func (c *Config) WithBuildLog(l io.Writer, flags int) Configurer {
	c.bldLog = l
	c.bldLFlags = flags
	return c
}

// Default returns a default configuration for static analysis.
func (c *Config) Default() Configurer {
	return c
}

func (c *Config) Build() (*goast.Info, error) {
	fset := token.NewFileSet()
	bldLog := log.New(c.bldLog, "astbuild: ", c.bldLFlags)

	srcs, err := c.src.Sources()
	if err != nil {
		return nil, err
	}
	var files []*ast.File
	for _, src := range srcs {
		parsed, err := parser.ParseFile(fset, src.Name, src.Reader, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", src.Name)
		}
		files = append(files, parsed)
	}
	if len(files) == 0 {
		return nil, ErrNoSource
	}

	tinfo := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := types.Config{Importer: importer.Default()}
	pkg, err := conf.Check(files[0].Name.Name, fset, files, tinfo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to type-check program")
	}
	bldLog.Print("Program parsed and type checked")

	return &goast.Info{
		FSet:   fset,
		Files:  files,
		Pkg:    pkg,
		TInfo:  tinfo,
		BldLog: c.bldLog,
		Logger: bldLog,
	}, nil
}
