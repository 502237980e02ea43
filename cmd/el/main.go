package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"el/internal/interp"
	"el/internal/lexer"
	"el/internal/packages"
	"el/internal/parser"
	"el/internal/repl"
	"el/internal/turtle"
)

const version = "0.4.0"

const usage = `El - a teaching language with three-valued logic and proofs

Usage:
  el <file.el>            run a program
  el run <file.el>        run a program
  el check <file.el>      parse a program without running it
  el repl                 start an interactive session
  el -i [file.el]         run a file, then start an interactive session
  el -c <code>            run code given on the command line
  el get [manifest]       install the dependencies of el.pkg.json
  el pkg list             list cached packages
  el pkg clear            empty the package cache
  el --version            print the version
  el --help               show this help

Environment:
  EL_CANVAS    host:port to serve turtle graphics over a websocket canvas
  EL_REGISTRY  package registry URL (default ` + packages.DefaultRegistry + `)
  EL_CACHE     package cache directory (default ~/.el/packages)
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		if isatty.IsTerminal(os.Stdin.Fd()) {
			return startREPL(nil)
		}
		return runReader(os.Stdin, "<stdin>")
	}

	switch args[0] {
	case "--help", "-h", "help":
		fmt.Print(usage)
		return 0
	case "--version", "-v", "version":
		fmt.Printf("el %s\n", version)
		return 0
	case "repl":
		return startREPL(nil)
	case "-i":
		// run the file (if given), then drop into the REPL with its state
		var preload *string
		if len(args) > 1 {
			preload = &args[1]
		}
		return startREPL(preload)
	case "-c":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "el: -c needs code to run")
			return 1
		}
		return runSource(args[1], "<command line>")
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "el: run needs a file")
			return 1
		}
		return runFile(args[1])
	case "check":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "el: check needs a file")
			return 1
		}
		return checkFile(args[1])
	case "get":
		manifest := packages.ManifestFile
		if len(args) > 1 {
			manifest = args[1]
		}
		return installDeps(manifest)
	case "pkg":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "el: pkg needs a subcommand (list, clear)")
			return 1
		}
		return pkgCommand(args[1])
	}

	return runFile(args[0])
}

func runFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	return runNamed(string(data), path)
}

func runReader(r io.Reader, name string) int {
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	return runNamed(string(data), name)
}

func runSource(source, name string) int {
	return runNamed(source, name)
}

func runNamed(source, name string) int {
	prog, err := parse(source, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	surface, cleanup := newSurface()
	defer cleanup()

	i := interp.New(interp.Config{Surface: surface})
	if err := i.Run(prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func checkFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	if _, err := parse(string(data), path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s: ok\n", path)
	return 0
}

func parse(source, name string) (*parser.Program, error) {
	tokens, err := lexer.NewScannerWithFile(source, name).ScanTokens()
	if err != nil {
		return nil, err
	}
	return parser.NewParserWithSource(tokens, source, name).Parse()
}

func startREPL(preload *string) int {
	surface, cleanup := newSurface()
	defer cleanup()

	i := interp.New(interp.Config{Surface: surface})
	if preload != nil {
		data, err := os.ReadFile(*preload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "el: %v\n", err)
			return 1
		}
		prog, err := parse(string(data), *preload)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := i.Run(prog); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if err := repl.New(i, os.Stdout).Run(version); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// newSurface picks the drawing surface: a websocket canvas when EL_CANVAS
// names an address, a headless recorder otherwise.
func newSurface() (turtle.Surface, func()) {
	addr := os.Getenv("EL_CANVAS")
	if addr == "" {
		return turtle.NewRecorder(), func() {}
	}
	canvas := turtle.NewWSCanvas(addr)
	if err := canvas.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "el: canvas: %v\n", err)
		return turtle.NewRecorder(), func() {}
	}
	fmt.Fprintf(os.Stderr, "turtle canvas on %s\n", canvas.URL())
	return canvas, func() { canvas.Close() }
}

func openCache() (*packages.Cache, error) {
	dir := os.Getenv("EL_CACHE")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".el", "packages")
	}
	return packages.OpenCache(dir)
}

func installDeps(manifestPath string) int {
	m, err := packages.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	cache, err := openCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	defer cache.Close()

	ins := packages.NewInstaller(cache, os.Getenv("EL_REGISTRY"), os.Stdout)
	if err := ins.InstallAll(m); err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	return 0
}

func pkgCommand(sub string) int {
	cache, err := openCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "el: %v\n", err)
		return 1
	}
	defer cache.Close()

	switch sub {
	case "list":
		entries, err := cache.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "el: %v\n", err)
			return 1
		}
		if len(entries) == 0 {
			fmt.Println("package cache is empty")
			return 0
		}
		for _, e := range entries {
			fmt.Printf("%s@%s\t%d bytes\t%s\n", e.Name, e.Version, e.Size, e.FetchedAt.Format("2006-01-02"))
		}
		return 0
	case "clear":
		if err := cache.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "el: %v\n", err)
			return 1
		}
		fmt.Println("package cache cleared")
		return 0
	}
	fmt.Fprintf(os.Stderr, "el: unknown pkg subcommand %q\n", sub)
	return 1
}
