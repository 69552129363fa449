package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/subcommands"

	"daedalus/bytecode"
	"daedalus/datfile"
)

// inspectCmd implements the "inspect" command: an interactive, read-only
// browser over an already-compiled .DAT image, for checking a compile's
// output without a full engine attached.
type inspectCmd struct{}

func (*inspectCmd) Name() string     { return "inspect" }
func (*inspectCmd) Synopsis() string { return "Browse a compiled .DAT image interactively" }
func (*inspectCmd) Usage() string {
	return `inspect <image.dat>:
  Open a read-only REPL over a compiled image. Commands:
    sym <name>   show a symbol's record by name (case-insensitive)
    sym <id>     show a symbol's record by id
    dis <addr>   disassemble bytecode starting at a byte address
    sort         list every symbol in sorted order
    quit         exit
`
}

func (*inspectCmd) SetFlags(f *flag.FlagSet) {}

func (*inspectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 image path not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	img, err := datfile.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to decode %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	byName := make(map[string]int, len(img.Symbols))
	for i, s := range img.Symbols {
		byName[strings.ToUpper(s.Name)] = i
	}

	rl, err := readline.New(color.CyanString("dat> "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Printf("%d symbols, %d bytecode bytes (type \"quit\" to exit)\n", len(img.Symbols), len(img.Code.Bytes()))

	for {
		line, err := rl.Readline()
		if err != nil {
			return subcommands.ExitSuccess
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return subcommands.ExitSuccess
		case "sym":
			if len(fields) < 2 {
				fmt.Println("usage: sym <name|id>")
				continue
			}
			printSymbol(img, byName, fields[1])
		case "dis":
			if len(fields) < 2 {
				fmt.Println("usage: dis <addr>")
				continue
			}
			addr, err := strconv.ParseUint(fields[1], 0, 32)
			if err != nil {
				fmt.Printf("bad address %q: %v\n", fields[1], err)
				continue
			}
			disassembleFrom(img.Code, uint32(addr))
		case "sort":
			printSorted(img)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func resolveSymbolRef(img *datfile.Image, byName map[string]int, ref string) (int, bool) {
	if id, err := strconv.Atoi(ref); err == nil {
		if id >= 0 && id < len(img.Symbols) {
			return id, true
		}
		return 0, false
	}
	id, ok := byName[strings.ToUpper(ref)]
	return id, ok
}

func printSymbol(img *datfile.Image, byName map[string]int, ref string) {
	id, ok := resolveSymbolRef(img, byName, ref)
	if !ok {
		fmt.Printf("no such symbol %q\n", ref)
		return
	}
	s := img.Symbols[id]
	bold := color.New(color.Bold)
	bold.Printf("#%d %s\n", id, s.Name)
	fmt.Printf("  type=%s count=%d flags=%#x parent=%d offClsRet=%d\n", s.DataType, s.Count, s.Flags, s.Parent, s.OffClsRet)
}

func printSorted(img *datfile.Image) {
	for _, id := range img.SortIndex {
		if int(id) < len(img.Symbols) {
			fmt.Printf("%6d  %s\n", id, img.Symbols[id].Name)
		}
	}
}

// disassembleFrom prints every instruction in code starting at addr up to
// the next Rsr (return), the same "one function body" granularity the
// codegen package emits blocks at.
func disassembleFrom(code *bytecode.Buffer, addr uint32) {
	if int(addr) >= len(code.Bytes()) {
		fmt.Printf("address %d out of range (code is %d bytes)\n", addr, len(code.Bytes()))
		return
	}
	it := code.IterateFrom(addr)
	for {
		ins, offset, ok, err := it.Next()
		if err != nil {
			fmt.Printf("  <decode error: %v>\n", err)
			return
		}
		if !ok {
			return
		}
		printInstruction(int(offset), ins)
		if ins.Opcode == bytecode.Rsr {
			return
		}
	}
}

func printInstruction(offset int, ins bytecode.Instruction) {
	switch ins.Opcode {
	case bytecode.Bl, bytecode.B, bytecode.Bz:
		fmt.Printf("%6d  %-8s %d\n", offset, ins.Opcode, ins.Address)
	case bytecode.PushI:
		fmt.Printf("%6d  %-8s %d\n", offset, ins.Opcode, ins.Immediate)
	case bytecode.Be, bytecode.PushV, bytecode.PushVI, bytecode.GMovI:
		fmt.Printf("%6d  %-8s #%d\n", offset, ins.Opcode, ins.Symbol)
	case bytecode.PushVV:
		fmt.Printf("%6d  %-8s #%d[%d]\n", offset, ins.Opcode, ins.Symbol, ins.SymbolIndex)
	default:
		fmt.Printf("%6d  %s\n", offset, ins.Opcode)
	}
}
