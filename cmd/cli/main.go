package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schulplan/placement/pkg/model"
	"github.com/schulplan/placement/pkg/search"
)

func main() {
	defaults := model.DefaultSolveConfig()

	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input snapshot (JSON)")
	outFilePathPtr := flag.String("out", "", "Path to the file where the result will be written; if empty, it'll be written into the Standard Output")
	budgetPtr := flag.Duration("budget", defaults.TimeBudget, "Time budget for the whole run, e.g. \"10s\" or \"500ms\"")
	seedPtr := flag.Int64("seed", defaults.Seed, "Random seed; identical snapshot, configuration and seed reproduce the exact same result")
	restartsPtr := flag.Int("restarts", defaults.Restarts, "Number of parallel independent search restarts")
	patiencePtr := flag.Int("patience", defaults.Patience, "Consecutive non-improving iterations before a restart is considered converged")
	flag.Parse()
	filePath := *filePathPtr
	outFile := *outFilePathPtr

	// Validate arguments
	if filePath == "" {
		log.Fatal("an input file must be specified")
	}

	// Extract input
	input, err := model.InputFromJson(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	// Layer the configuration: defaults, then the snapshot's embedded config,
	// then every flag the caller set explicitly
	config := defaults
	if input.Config != nil {
		config = input.Config.Apply(config)
	}
	flag.Visit(func(argument *flag.Flag) {
		switch argument.Name {
		case "budget":
			config.TimeBudget = *budgetPtr
		case "seed":
			config.Seed = *seedPtr
		case "restarts":
			config.Restarts = *restartsPtr
		case "patience":
			config.Patience = *patiencePtr
		}
	})
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	// Solve
	placer := model.NewPlacer(search.NewAnnealingEngine())
	started := time.Now()
	result, err := placer.Place(input, config)

	var infeasibleErr *model.InfeasibleModelError
	if err != nil && !errors.As(err, &infeasibleErr) {
		log.Fatalf("an error occurred during placement: %v", err)
	}

	// Marshal result into json
	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Fatalf("an error occurred while building output json: %v", err)
	}

	// Verify outfile is empty, if so then write the result to the Standard Output
	if outFile == "" {
		fmt.Println(string(resultJson))
	} else {
		err := os.WriteFile(outFile, resultJson, 0666)
		if err != nil {
			log.Fatalf("an error occurred while writing to the output file: %v", err)
		}
	}

	fmt.Printf("Feasible: %v\n", result.Feasible)
	fmt.Printf("Quality: %.3f\n", result.Quality)
	fmt.Printf("Termination: %v\n", result.Termination)
	fmt.Printf("Duration: %v\n", time.Since(started).Round(time.Millisecond))

	if infeasibleErr != nil {
		os.Exit(20)
	} else if !result.Feasible {
		os.Exit(15)
	}
	os.Exit(10)
}
