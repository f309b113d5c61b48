package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samber/lo"

	"github.com/schulplan/placement/pkg/model"
	"github.com/schulplan/placement/pkg/search"
)

const snapshotDirectory = "../../test/snapshots/"

type ResultType int

const (
	solved ResultType = iota
	partial
	infeasible
)

var resultTypes = map[ResultType]string{
	solved:     "solved",
	partial:    "partial",
	infeasible: "infeasible",
}

type SnapshotMetadata struct {
	Name        string
	Items       int
	Resources   int
	Constraints int
}

type BenchmarkResult struct {
	Snapshot   SnapshotMetadata
	Restarts   int
	Budget     time.Duration
	Duration   int64
	Quality    float64
	Iterations uint64
	Result     ResultType
}

func main() {
	snapshots := getSnapshots()
	configs := getConfigs()
	results := make([]BenchmarkResult, 0, len(snapshots)*len(configs))

	for _, snapshot := range snapshots {
		for _, config := range configs {
			fmt.Printf("Benchmarking snapshot \"%v\" with %v restarts and budget %v\n", snapshot.Name, config.Restarts, config.TimeBudget)

			results = append(results, measure(snapshot, config))
		}
	}

	toCsv(results)
}

func getSnapshots() []SnapshotMetadata {
	snapshotFiles, err := os.ReadDir(snapshotDirectory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	return lo.Map(snapshotFiles, func(file os.DirEntry, _ int) SnapshotMetadata {
		filename := snapshotDirectory + file.Name()
		input, err := model.InputFromJson(filename)
		if err != nil {
			log.Fatalf("cannot parse input file: %v", err)
		}

		return SnapshotMetadata{
			Name:        filename,
			Items:       len(input.Items),
			Resources:   len(input.Resources),
			Constraints: len(input.Constraints),
		}
	})
}

func getConfigs() []model.SolveConfig {
	configs := make([]model.SolveConfig, 0)
	for _, restarts := range []int{1, 2, 4, 8} {
		for _, budget := range []time.Duration{time.Second, 5 * time.Second} {
			config := model.DefaultSolveConfig()
			config.Restarts = restarts
			config.TimeBudget = budget
			configs = append(configs, config)
		}
	}
	return configs
}

func measure(snapshot SnapshotMetadata, config model.SolveConfig) BenchmarkResult {
	input, err := model.InputFromJson(snapshot.Name)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	placer := model.NewPlacer(search.NewAnnealingEngine())

	started := time.Now()
	result, err := placer.Place(input, config)
	duration := time.Since(started).Milliseconds()

	resultType := solved
	var infeasibleErr *model.InfeasibleModelError
	if errors.As(err, &infeasibleErr) {
		resultType = infeasible
	} else if err != nil {
		log.Fatalf("an error occurred during placement of \"%v\": %v", snapshot.Name, err)
	} else if !result.Feasible {
		resultType = partial
	}

	return BenchmarkResult{
		Snapshot:   snapshot,
		Restarts:   config.Restarts,
		Budget:     config.TimeBudget,
		Duration:   duration,
		Quality:    result.Quality,
		Iterations: result.Iterations,
		Result:     resultType,
	}
}

func toCsv(results []BenchmarkResult) {
	file, err := os.Create("benchmark_results.csv")
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Snapshot", "Items", "Resources", "Constraints", "Restarts", "Budget", "Duration(ms)", "Quality", "Iterations", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Snapshot.Name,
			fmt.Sprintf("%d", result.Snapshot.Items),
			fmt.Sprintf("%d", result.Snapshot.Resources),
			fmt.Sprintf("%d", result.Snapshot.Constraints),
			fmt.Sprintf("%d", result.Restarts),
			result.Budget.String(),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.3f", result.Quality),
			fmt.Sprintf("%d", result.Iterations),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}
