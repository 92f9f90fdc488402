package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/teris-io/cli"

	"github.com/j-hui/MicroHs/pkg/comb"
	"github.com/j-hui/MicroHs/pkg/graph"
)

var Description = strings.ReplaceAll(`
Combscope loads a compiled combinator (.comb) file, rebuilds the expression
graph it encodes, and reports on its structure: sharing, cycles, reachability
and redex sites. It is the command line companion to the graph analyses; no
evaluation takes place.
`, "\n", " ")

var Combscope = cli.New(Description).
	WithArg(cli.NewArg("input", "The combinator (.comb) file to inspect")).
	WithOption(cli.NewOption("gc", "Run mark & sweep before reporting").WithChar('g').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("redexes", "Detect and report redex sites").WithChar('r').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("leaves", "List the graph leaves").WithChar('l').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("print", "Echo the parsed program back in its textual form").WithChar('p').WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Enable debug logging").WithChar('v').WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if options["verbose"] != "" || os.Getenv("COMBSCOPE_DEBUG") != "" {
		log.SetLogLevel(log.Debug)
	}

	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	// Instantiate a parser for the comb file
	parser := comb.NewParser(bytes.NewReader(input), args[0])
	// Parses the input file content into its flat in-memory form.
	file, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	if options["print"] != "" {
		fmt.Println(file)
	}

	// Lowers the flat program into its graph form (with layout metadata).
	g := graph.FromProgram(&file.Program)

	fmt.Printf("%s: comb format v%d.%d, %d definitions, %d expressions\n",
		args[0], file.Major, file.Minor, file.Size, len(file.Program.Body))
	fmt.Printf("graph: %d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())

	if options["gc"] != "" {
		swept := g.GC()
		fmt.Printf("gc: swept %d nodes, %d remain\n", swept, g.NodeCount())
	}

	if options["redexes"] != "" {
		g.MarkRedexes()
		for _, n := range g.Nodes() {
			if n.Redex != comb.NoPrim {
				fmt.Printf("redex: %s at node %d (depth %d)\n", n.Redex, n.ID(), n.Meta.Depth)
			}
		}
	}

	if options["leaves"] != "" {
		g.Mark()
		for _, n := range g.Leaves() {
			fmt.Printf("leaf: %s reachable=%t\n", n.Expr, n.Reachable)
		}
	}

	return 0
}

func main() { os.Exit(Combscope.Run(os.Args, os.Stdout)) }
