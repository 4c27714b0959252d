// Diagnostic tool for inspecting scientific image datasets
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/robert-malhotra/go-sciio/formats"
	"github.com/robert-malhotra/go-sciio/sciio"
)

func main() {
	var (
		verbose   = flag.Bool("v", false, "Log parse stages and skipped header lines")
		stats     = flag.Bool("stats", false, "Print sample statistics for each plane")
		maxPlanes = flag.Int64("planes", 4, "Planes per image to summarize with -stats")
		table     = flag.Bool("table", false, "Print the raw header key/values")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: diagnose [-v] [-stats] [-planes n] [-table] <file> ...")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
	}
	defer log.Sync()

	st := plainStyles()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		st = colorStyles()
	}

	reg := formats.NewRegistry(sciio.WithLogger(log))
	opts := reportOptions{stats: *stats, maxPlanes: *maxPlanes, table: *table}

	failed := false
	for _, location := range flag.Args() {
		if err := inspect(reg, location, st, opts); err != nil {
			fmt.Fprintln(os.Stderr, st.err.Render(fmt.Sprintf("%s: %v", location, err)))
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func inspect(reg *sciio.Registry, location string, st styles, opts reportOptions) error {
	r, err := reg.Open(location)
	if err != nil {
		return err
	}
	defer r.Close(false)
	return report(os.Stdout, r, st, opts)
}
