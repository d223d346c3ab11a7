// Command dbgjunc enumerates de Bruijn graph junction vertex positions over
// one or more FASTA files, per spec.md. Flag layout follows the teacher's
// ga.go: global flags (-K, -t, -p, -C) on the root app, the rest on the
// "junctions" subcommand — the same split constructcf.go's CheckGlobalArgs /
// checkArgs expects.
package main

import (
	"log"

	"github.com/jwaldrip/odin/cli"

	"dbgjunc/config"
	"dbgjunc/pipeline"
)

var app = cli.New("1.0.0", "enumerate de Bruijn graph junction vertices", func(c cli.Command) {})

func init() {
	app.DefineIntFlag("K", 21, "vertex (kmer) length")
	app.DefineIntFlag("t", 1, "number of worker threads")
	app.DefineStringFlag("p", "./dbgjunc", "prefix used for diagnostics and profiling output")
	app.DefineStringFlag("C", "", "configure file (reserved, unused by junctions)")

	junc := app.DefineSubCommand("junctions", "find junction vertex positions in one or more FASTA files", Junctions)
	{
		junc.DefineIntFlag("S", 30, "log2 of the edge filter's domain size")
		junc.DefineIntFlag("H", 4, "number of independent rolling-hash seeds (must be >= 1; validated only, not used by junctions)")
		junc.DefineIntFlag("R", 1, "number of round-partitioning rounds")
		junc.DefineStringFlag("tmp", "/tmp", "temporary directory for spilled candidate masks and filter dumps")
		junc.DefineStringFlag("o", "junctions.out", "output file path")
	}
}

// Junctions is the "junctions" subcommand action: parse Options from the
// command's own and parent flags, then hand off to pipeline.Run.
func Junctions(c cli.Command) {
	inputs := []string(c.Args())
	if len(inputs) == 0 {
		log.Fatalf("[Junctions] at least one input FASTA file required as a positional argument")
	}

	opt, err := config.FromCommand(c.Parent(), c, inputs)
	if err != nil {
		log.Fatalf("[Junctions] bad arguments: %v", err)
	}

	if err := pipeline.Run(opt); err != nil {
		log.Fatalf("[Junctions] %v", err)
	}
}

func main() {
	app.Start()
}
