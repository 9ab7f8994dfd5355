// Command harvest compiles a declarative extraction spec and applies it to
// HTML, printing the extracted values as JSON or TOML.
//
// Usage (stdin):
//
//	cat page.html | harvest -spec rules.toml
//
// Usage (fetch URL):
//
//	harvest -url "https://example.com/page" -spec rules.json
//
// Usage (directory mode, one result per file):
//
//	harvest -dir ./pages -spec rules.toml
//
// Crawler mode (config carries the URL and named rules):
//
//	harvest -config crawl.toml -format toml
//
// Debug (print matches for a selector):
//
//	cat page.html | harvest -selector "div#firmInfo" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"harvest/internal/extract"
	"harvest/internal/fetch"
	sinksqlite "harvest/internal/sink/sqlite"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run is split out from main so we can unit test the command without
// spawning an OS process.
//
// It returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("harvest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	specPath := fs.String("spec", "", "Path to extraction spec (.json or .toml)")
	configPath := fs.String("config", "", "Crawler config TOML: url plus named rules (overrides -spec)")
	urlFlag := fs.String("url", "", "Optional: fetch HTML from URL instead of stdin")
	dirFlag := fs.String("dir", "", "Optional: directory containing HTML files (one result per file, JSON array)")
	formatFlag := fs.String("format", "json", "Output format: json or toml")
	fragment := fs.Bool("fragment", false, "Parse input as an HTML fragment instead of a document")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches")
	dbPath := fs.String("db", "", "Optional: SQLite database to also store flattened results in")
	timeout := fs.Duration("timeout", 20*time.Second, "Timeout for -url fetch")
	verbose := fs.Bool("v", false, "Enable verbose diagnostics")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}
	defer func() { _ = logger.Sync() }()

	outFormat, err := parseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	loader := fetch.NewLoader(httpClient, *timeout)

	var sink *sinksqlite.Sink
	if *dbPath != "" {
		sink, err = sinksqlite.Open(ctx, *dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "open db: %v\n", err)
			return 1
		}
		defer sink.Close()
	}

	// Debug selector mode needs HTML input (stdin or url) but no spec.
	if *debugSelector != "" {
		html, err := loader.Load(ctx, fetch.Input{URL: *urlFlag, Stdin: stdin})
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		if err := extract.DebugPrintSelector(stdout, html, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
		return 0
	}

	if *configPath != "" {
		return runConfig(ctx, *configPath, outFormat, loader, sink, logger, stdout, stderr)
	}

	if *specPath == "" {
		fmt.Fprintf(stderr, "missing -spec\n")
		return 2
	}

	compiled, err := loadSpec(*specPath)
	if err != nil {
		fmt.Fprintf(stderr, "load spec: %v\n", err)
		return 2
	}

	// Directory mode: stream output as a single JSON array.
	if *dirFlag != "" {
		if outFormat != extract.JSON {
			fmt.Fprintf(stderr, "-dir mode streams JSON; -format toml is not supported\n")
			return 2
		}
		if err := streamFromDir(ctx, stdout, *dirFlag, compiled, sink, logger); err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		return 0
	}

	// Single input mode: stdin OR -url.
	html, err := loader.Load(ctx, fetch.Input{URL: *urlFlag, Stdin: stdin})
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	var value extract.Value
	if *fragment {
		value, err = compiled.ExtractFragment(html)
	} else {
		value, err = compiled.ExtractDocument(html)
	}
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	if err := writeValue(stdout, value, outFormat); err != nil {
		fmt.Fprintf(stderr, "encode: %v\n", err)
		return 1
	}

	if sink != nil {
		source := *urlFlag
		if source == "" {
			source = "stdin"
		}
		if err := sink.Store(ctx, source, value); err != nil {
			fmt.Fprintf(stderr, "store: %v\n", err)
			return 1
		}
		logger.Info("stored result", zap.String("source", source))
	}
	return 0
}

// loadSpec reads and compiles a spec file, inferring the wire format from
// the file extension (.toml is TOML, everything else JSON).
func loadSpec(path string) (*extract.Compiled, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	format := extract.JSON
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = extract.TOML
	}

	spec, err := extract.ParseSpec(b, format)
	if err != nil {
		return nil, err
	}
	return extract.Compile(spec)
}

// runConfig implements crawler mode: the config names a URL and any number
// of top-level rules; the page is fetched once and every rule is applied to
// it, producing one named result per rule.
func runConfig(
	ctx context.Context,
	path string,
	outFormat extract.Format,
	loader *fetch.Loader,
	sink *sinksqlite.Sink,
	logger *zap.Logger,
	stdout io.Writer,
	stderr io.Writer,
) int {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "read config: %v\n", err)
		return 2
	}

	raw := map[string]any{}
	if err := toml.Unmarshal(b, &raw); err != nil {
		fmt.Fprintf(stderr, "parse config: %v\n", err)
		return 2
	}

	url, _ := raw["url"].(string)
	if strings.TrimSpace(url) == "" {
		fmt.Fprintf(stderr, "config is missing url\n")
		return 2
	}
	delete(raw, "url")

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make(map[string]*extract.Compiled, len(names))
	for _, name := range names {
		table, ok := raw[name].(map[string]any)
		if !ok {
			fmt.Fprintf(stderr, "config field %q is not a rule table\n", name)
			return 2
		}
		spec, err := extract.ParseSpecMap(table)
		if err != nil {
			fmt.Fprintf(stderr, "rule %q: %v\n", name, err)
			return 2
		}
		compiled, err := extract.Compile(spec)
		if err != nil {
			fmt.Fprintf(stderr, "rule %q: %v\n", name, err)
			return 2
		}
		rules[name] = compiled
	}

	logger.Info("fetching page", zap.String("url", url))
	html, err := loader.Load(ctx, fetch.Input{URL: url})
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	values := make([]extract.Value, len(names))
	for i, name := range names {
		v, err := rules[name].ExtractDocument(html)
		if err != nil {
			fmt.Fprintf(stderr, "extract %q: %v\n", name, err)
			return 1
		}
		values[i] = v
	}
	result := extract.Map(names, values)

	if err := writeValue(stdout, result, outFormat); err != nil {
		fmt.Fprintf(stderr, "encode: %v\n", err)
		return 1
	}

	if sink != nil {
		if err := sink.Store(ctx, url, result); err != nil {
			fmt.Fprintf(stderr, "store: %v\n", err)
			return 1
		}
	}
	return 0
}

// dirEntry is one element of the directory-mode output array.
type dirEntry struct {
	SourceFile string        `json:"source_file"`
	Result     extract.Value `json:"result"`
}

// streamFromDir applies a compiled rule to every file in dir and streams a
// single JSON array, one element per file.
//
// Behavior:
//   - stable ordering by filename
//   - unreadable or unparseable files are skipped
func streamFromDir(
	ctx context.Context,
	w io.Writer,
	dir string,
	compiled *extract.Compiled,
	sink *sinksqlite.Sink,
	logger *zap.Logger,
) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if _, err := io.WriteString(w, "["); err != nil {
		return fmt.Errorf("write [: %w", err)
	}

	first := true
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Warn("skipping unreadable file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}

		value, err := compiled.ExtractDocument(string(b))
		if err != nil {
			logger.Warn("skipping unparseable file", zap.String("file", e.Name()), zap.Error(err))
			continue
		}

		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return fmt.Errorf("write comma: %w", err)
			}
		}
		first = false
		if err := enc.Encode(dirEntry{SourceFile: e.Name(), Result: value}); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}

		if sink != nil {
			if err := sink.Store(ctx, e.Name(), value); err != nil {
				return fmt.Errorf("store %s: %w", e.Name(), err)
			}
		}
	}

	if _, err := io.WriteString(w, "]"); err != nil {
		return fmt.Errorf("write ]: %w", err)
	}
	return nil
}

func writeValue(w io.Writer, v extract.Value, format extract.Format) error {
	b, err := extract.EncodeValue(v, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	if len(b) > 0 && b[len(b)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func parseFormat(name string) (extract.Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return extract.JSON, nil
	case "toml":
		return extract.TOML, nil
	default:
		return 0, fmt.Errorf("unknown -format %q (want json or toml)", name)
	}
}
