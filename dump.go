package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"daedalus/ast"
	"daedalus/diag"
	"daedalus/fileset"
	"daedalus/parser"
)

// dumpCmd implements the "dump" command: parse a single source file and
// list its top-level declarations, for checking a file's shape without
// running a full compile.
type dumpCmd struct{}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "List the top-level declarations of a source file" }
func (*dumpCmd) Usage() string {
	return `dump <file.d>:
  Parse a single source file and print its top-level declarations in
  source order.
`
}

func (*dumpCmd) SetFlags(f *flag.FlagSet) {}

func (*dumpCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 source file not provided\n")
		return subcommands.ExitUsageError
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	reg := fileset.NewRegistry(false)
	id := reg.Add(args[0], src)

	items, perrs := parser.ParseFile(id, src)
	if len(perrs) > 0 {
		var list diag.List
		for _, pe := range perrs {
			list.Errorf(pe.Span, "%s", pe.Error())
		}
		diag.Render(os.Stderr, reg, &list, true)
	}

	for _, item := range items {
		fmt.Printf("%-10s %s\n", itemKind(item), declName(item))
	}
	return subcommands.ExitSuccess
}

// itemKind names an item's declaration kind for dump output.
func itemKind(item ast.Item) string {
	switch item.(type) {
	case *ast.ClassItem:
		return "class"
	case *ast.InstanceItem:
		return "instance"
	case *ast.PrototypeItem:
		return "prototype"
	case *ast.FuncItem:
		return "func"
	case *ast.ExternFuncItem:
		return "extern func"
	case *ast.VarItem:
		return "var"
	case *ast.ConstItem:
		return "const"
	default:
		return "?"
	}
}
