package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"daedalus/ast"
	"daedalus/builtin"
	"daedalus/codegen"
	"daedalus/datfile"
	"daedalus/diag"
	"daedalus/fileset"
	"daedalus/parser"
)

// compileCmd implements the "compile" command: walk a source tree for .d
// files and emit a single binary .DAT image in the legacy tool's format.
type compileCmd struct {
	out           string
	legacyFileIDs bool
	noColor       bool
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile a Daedalus source tree into a .DAT image" }
func (*compileCmd) Usage() string {
	return `compile [-out image.dat] [-legacy-file-ids] <src-root>:
  Walk src-root for *.d files, compile them, and write a binary symbol
  table + bytecode image.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "out", "out.dat", "path to write the compiled image to")
	f.BoolVar(&cmd.legacyFileIDs, "legacy-file-ids", true, "reserve file id 0 for the engine's synthetic <builtins> file, matching the original tool's on-disk file index layout")
	f.BoolVar(&cmd.noColor, "no-color", false, "disable colorized diagnostic output")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 source root not provided\n")
		return subcommands.ExitUsageError
	}
	root := args[0]

	paths, err := findSources(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to walk %s: %v\n", root, err)
		return subcommands.ExitFailure
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "💥 no .d files found under %s\n", root)
		return subcommands.ExitFailure
	}

	reg := fileset.NewRegistry(cmd.legacyFileIDs)
	builtins := builtin.Default()

	var files []codegen.File
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", p, err)
			return subcommands.ExitFailure
		}
		id := reg.Add(p, src)

		items, perrs := parser.ParseFile(id, src)
		if len(perrs) > 0 {
			var list diag.List
			for _, pe := range perrs {
				list.Errorf(pe.Span, "%s", pe.Error())
			}
			diag.Render(os.Stderr, reg, &list, !cmd.noColor)
			return subcommands.ExitFailure
		}
		files = append(files, codegen.File{ID: id, Items: items})
	}

	table, code, errs := codegen.Compile(files, reg, builtins)
	if len(errs) > 0 {
		diag.RenderErrors(os.Stderr, errs, !cmd.noColor)
		return subcommands.ExitFailure
	}

	table.GenerateSortTable()
	img := datfile.FromTable(table, code)
	out := datfile.Encode(img)

	if err := os.WriteFile(cmd.out, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write %s: %v\n", cmd.out, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %s (%d symbols, %d bytecode bytes)\n", cmd.out, len(table.Symbols()), len(code.Bytes()))
	return subcommands.ExitSuccess
}

// findSources walks root for every "*.d" file, returning paths in a stable,
// deterministic order (full paths sorted lexically, byte by byte) so
// repeated compiles of the same tree assign the same file ids every time.
func findSources(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".d") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// declName returns an item's declared name, shared by the "dump" command.
func declName(item ast.Item) string {
	switch it := item.(type) {
	case *ast.ClassItem:
		return it.Name.Name
	case *ast.InstanceItem:
		return it.Name.Name
	case *ast.PrototypeItem:
		return it.Name.Name
	case *ast.FuncItem:
		return it.Name.Name
	case *ast.ExternFuncItem:
		return it.Name.Name
	case *ast.VarItem:
		return it.Name.Name
	case *ast.ConstItem:
		return it.Name.Name
	default:
		return "?"
	}
}
