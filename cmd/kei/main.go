package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kei-lang/kei/pkg/config"
	"github.com/kei-lang/kei/pkg/driver"
	"github.com/kei-lang/kei/pkg/interpreter"
	"github.com/kei-lang/kei/pkg/parser"
	"github.com/kei-lang/kei/pkg/voice"
)

const cliToolVersion = "kei 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runRepl()
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-v":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	}

	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return 1
	}
	return runFile(args[0])
}

func runFile(path string) int {
	cfg, err := config.LoadFromDir(filepath.Dir(mustAbs(path)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load kei.yaml: %v\n", err)
		return 1
	}

	loader := driver.NewLoader(cfg.ImportPaths)
	prog, err := loader.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ch := channelFor(cfg)
	interp := interpreter.New(ch)
	if _, err := interp.EvaluateProgram(prog, interp.GlobalEnvironment()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func channelFor(cfg *config.Config) voice.Channel {
	if !cfg.Voice {
		return voice.Discard{}
	}
	return voice.NewDefault()
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// runRepl implements §6.1's read-eval-print loop: a line ending in `:`
// continues reading (indented with `... `) until a blank line closes the
// block, and the bare word `conclude` ends the session.
func runRepl() int {
	cfg, err := config.LoadFromDir(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load kei.yaml: %v\n", err)
		return 1
	}
	ch := channelFor(cfg)
	ch.Emit(voice.Event{Kind: voice.EventBanner, Payload: cliToolVersion})

	interp := interpreter.New(ch)
	env := interp.GlobalEnvironment()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		ch.Emit(voice.Event{Kind: voice.EventPrompt, Payload: "> "})
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "conclude" {
			break
		}

		src := line
		for strings.HasSuffix(strings.TrimRight(line, " \t"), ":") {
			fmt.Fprint(os.Stderr, "... ")
			if !scanner.Scan() {
				break
			}
			line = scanner.Text()
			if strings.TrimSpace(line) == "" {
				break
			}
			src += "\n" + line
		}

		prog, syntaxErrs := parser.ParseProgram(src)
		if len(syntaxErrs) > 0 {
			for _, e := range syntaxErrs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			continue
		}
		result, err := interp.EvaluateProgram(prog, env)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		ch.Emit(voice.Event{Kind: voice.EventPreview, Payload: fmt.Sprintf("%v", result)})
	}

	ch.Emit(voice.Event{Kind: voice.EventGoodbye, Payload: "goodbye"})
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  kei <file.kei>")
	fmt.Fprintln(os.Stderr, "  kei            (starts a REPL)")
	fmt.Fprintln(os.Stderr, "  kei --help")
	fmt.Fprintln(os.Stderr, "  kei --version")
}
