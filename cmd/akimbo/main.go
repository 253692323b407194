// akimbo is a UCI-compatible chess engine: bitboard move generation, a
// PVS/alpha-beta search core with standard pruning and reduction
// heuristics, and a small NNUE static evaluator.
package main

import (
	"context"
	"flag"
	"os"
	"runtime/pprof"

	"github.com/seekerror/logw"

	"github.com/lucidchess/akimbo/internal/bench"
	"github.com/lucidchess/akimbo/internal/nnue"
	"github.com/lucidchess/akimbo/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	evalFile   = flag.String("evalfile", "", "path to a trained NNUE weights file (random weights if empty)")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			logw.Exitf(ctx, "could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			logw.Exitf(ctx, "could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		logw.Infof(ctx, "CPU profiling enabled, writing to %s", profilePath)
	}

	eval, err := nnue.NewEvaluator(*evalFile)
	if err != nil {
		logw.Exitf(ctx, "failed to load NNUE weights from %s: %v", *evalFile, err)
	}
	if *evalFile == "" {
		logw.Infof(ctx, "no evalfile given; running with randomly initialized weights")
	}

	if len(flag.Args()) > 0 && flag.Args()[0] == "bench" {
		bench.Print(eval.Network())
		return
	}

	protocol := uci.New(ctx, eval.Network())
	protocol.Run()
}
