// Command goprefetch is the command line entry point to prefetch range
// analysis.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"io/ioutil"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/xyproto/env/v2"

	"github.com/nickng/goprefetch/goast"
	"github.com/nickng/goprefetch/goast/build"
	"github.com/nickng/goprefetch/prefetch"
)

const (
	Usage = `goprefetch is a tool for deriving prefetch ranges from counted loops in Go source code.

Usage:

  goprefetch [options] file.go [files.go...]

Options:

`
)

var (
	logPath   string
	funcName  string
	logFile   string
	logWriter = ioutil.Discard
)

func init() {
	flag.StringVar(&logPath, "log", env.Str("GOPREFETCH_LOG"), "Specify analysis log file (use '-' for stderr)")
	flag.StringVar(&funcName, "func", "", "Analyse only the named function")
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, Usage)
		flag.PrintDefaults()
		os.Exit(0)
	}

	conf := build.FromFiles(flag.Args()).Default()
	switch logPath {
	case "":
	case "-":
		logWriter = os.Stderr
		conf = conf.WithBuildLog(logWriter, log.LstdFlags)
	default:
		f, err := os.Create(logPath)
		if err != nil {
			log.Fatalf("Cannot create log %s: %v", logPath, err)
		}
		defer f.Close()
		conf = conf.WithBuildLog(f, log.LstdFlags)
		logWriter = f
		logFile = f.Name()
	}
	info, err := conf.Build()
	if err != nil {
		log.Fatal("Build failed:", err)
	}
	for _, file := range info.Files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			if funcName != "" && fd.Name.Name != funcName {
				continue
			}
			analyseFunc(info, fd)
		}
	}
}

// analyseFunc derives and prints the prefetch ranges of every outermost
// loop in the function body.
func analyseFunc(info *goast.Info, fd *ast.FuncDecl) {
	loops := goast.OuterLoops(fd.Body)
	if len(loops) == 0 {
		return
	}
	fmt.Printf("%s %s\n",
		color.New(color.Bold).Sprintf("func %s", fd.Name.Name),
		info.FSet.Position(fd.Pos()))
	for _, l := range loops {
		analysis := prefetch.New(info, l)
		if logFile != "" {
			analysis.AddLogFiles(logFile)
		}
		analysis.Analyse()
		if err := analysis.CalculateRanges(); err != nil {
			log.Fatal("Analysis failed:", err)
		}
		if err := analysis.WriteRanges(os.Stdout); err != nil {
			log.Fatal("Cannot write ranges:", err)
		}
	}
}
