package main

import (
	"flag"
	"os"

	"github.com/Luis-Munu/Arcane-Doughty-Optimizer/internal/app"
)

func main() {
	useExamples := flag.Bool("useExamples", false, "use the example data file from input/build_optimizer/examples instead of optimizer_config.yaml")
	noExport := flag.Bool("noExport", false, "print the ranking without writing the xlsx table")
	flag.Parse()
	os.Exit(app.RunWithOptions(app.Options{UseExamples: *useExamples, NoExport: *noExport}))
}
