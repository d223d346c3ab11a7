// Package config holds the pipeline's enumerated options (spec.md 6) and the
// odin/cli flag wiring the teacher's ga binary uses (see ga.go, constructcf.go's
// Options/checkArgs).
package config

import (
	"fmt"
	"strconv"

	"github.com/jwaldrip/odin/cli"

	"dbgjunc/dbgerr"
)

// Options is the full set of pipeline configuration values (spec.md 6).
type Options struct {
	VertexLength  int // k
	FilterSizeLog int // log2 of the Cuckoo filter domain
	HashFunctions int
	Rounds        int
	Threads       int
	TmpDir        string
	OutFile       string
	Inputs        []string // ordered FASTA file paths
}

// Validate checks the enumerated options against spec.md 6 and 7's Config error
// kind, returning a *dbgerr.Error wrapping the first violation found.
func (o Options) Validate() error {
	switch {
	case o.VertexLength <= 0 || o.VertexLength > 62:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("vertexLength %d must be in (0, 62]", o.VertexLength)}
	case o.FilterSizeLog <= 0:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("filterSize %d must be positive", o.FilterSizeLog)}
	case o.HashFunctions < 1:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("hashFunctions %d must be >= 1", o.HashFunctions)}
	case o.Rounds < 1:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("rounds %d must be >= 1", o.Rounds)}
	case o.Threads < 1:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("threads %d must be >= 1", o.Threads)}
	case o.TmpDir == "":
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("tmpDir must be set")}
	case o.OutFile == "":
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("outFile must be set")}
	case len(o.Inputs) == 0:
		return &dbgerr.Error{Kind: dbgerr.Config, Err: fmt.Errorf("at least one input FASTA file required")}
	}
	return nil
}

// FilterSize returns the Cuckoo filter domain size, 2^FilterSizeLog.
func (o Options) FilterSize() uint64 {
	return uint64(1) << uint(o.FilterSizeLog)
}

// FromCommand builds Options from a subcommand plus its parent, matching the
// teacher's split between CheckGlobalArgs(c.Parent()) (K, t live on the root
// app) and checkArgs(c) (S, H, R, tmp, o live on the "junctions" subcommand)
// in constructcf.go/utils.go. Malformed flags are reported as parse errors;
// semantic validation (k out of range, etc.) is Options.Validate.
func FromCommand(global, sub cli.Command, inputs []string) (Options, error) {
	var opt Options
	var err error
	if opt.VertexLength, err = strconv.Atoi(global.Flag("K").String()); err != nil {
		return opt, fmt.Errorf("parse -K: %w", err)
	}
	if opt.Threads, err = strconv.Atoi(global.Flag("t").String()); err != nil {
		return opt, fmt.Errorf("parse -t: %w", err)
	}
	if opt.FilterSizeLog, err = strconv.Atoi(sub.Flag("S").String()); err != nil {
		return opt, fmt.Errorf("parse -S: %w", err)
	}
	if opt.HashFunctions, err = strconv.Atoi(sub.Flag("H").String()); err != nil {
		return opt, fmt.Errorf("parse -H: %w", err)
	}
	if opt.Rounds, err = strconv.Atoi(sub.Flag("R").String()); err != nil {
		return opt, fmt.Errorf("parse -R: %w", err)
	}
	opt.TmpDir = sub.Flag("tmp").String()
	opt.OutFile = sub.Flag("o").String()
	opt.Inputs = inputs
	return opt, opt.Validate()
}
