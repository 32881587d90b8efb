// Command sqllint enforces the inline-SQL audit discipline: every string
// constant containing SQL must open with a `--sql <uuid>` marker line, and no
// two constants may share a marker. The marker travels with the statement to
// the server, so a slow query seen in pg_stat_activity can be traced straight
// back to the constant that issued it.
//
// With no arguments it lints ./internal/sqlinline, where all of the
// repository's SQL lives. Pass files or directories to lint other trees.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeyword = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with)\b`)
	markerLine = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type finding struct {
	pos     token.Position
	name    string
	message string
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"./internal/sqlinline"}
	}

	var files []string
	for _, target := range targets {
		found, err := collectGoFiles(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		files = append(files, found...)
	}

	fset := token.NewFileSet()
	seen := map[string]token.Position{}
	var findings []finding
	for _, file := range files {
		fs, err := lintFile(fset, file, seen)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
		findings = append(findings, fs...)
	}

	if len(findings) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "sqllint: SQL audit marker violations")
	for _, f := range findings {
		fmt.Fprintf(os.Stderr, "  %s:%d %s (%s)\n", f.pos.Filename, f.pos.Line, f.message, f.name)
	}
	os.Exit(1)
}

func collectGoFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if filepath.Ext(target) != ".go" {
			return nil, nil
		}
		return []string{target}, nil
	}
	var files []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func lintFile(fset *token.FileSet, path string, seen map[string]token.Position) ([]finding, error) {
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}
	var findings []finding
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for _, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			text, err := unquote(lit.Value)
			if err != nil || !sqlKeyword.MatchString(text) {
				continue
			}
			pos := fset.Position(lit.Pos())
			name := specName(spec)
			marker := firstLine(text)
			if !markerLine.MatchString(marker) {
				findings = append(findings, finding{
					pos:     pos,
					name:    name,
					message: "missing or invalid --sql <uuid> marker",
				})
				continue
			}
			id := strings.TrimPrefix(marker, "--sql ")
			if first, dup := seen[id]; dup {
				findings = append(findings, finding{
					pos:     pos,
					name:    name,
					message: fmt.Sprintf("marker %s already used at %s:%d", id, first.Filename, first.Line),
				})
				continue
			}
			seen[id] = pos
		}
		return true
	})
	return findings, nil
}

// firstLine returns the first non-blank line of a SQL constant, which is where
// the marker must sit.
func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func specName(spec *ast.ValueSpec) string {
	parts := make([]string, 0, len(spec.Names))
	for _, ident := range spec.Names {
		if ident != nil {
			parts = append(parts, ident.Name)
		}
	}
	return strings.Join(parts, ",")
}
