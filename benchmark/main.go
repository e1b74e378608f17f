// Package main provides a performance benchmarking tool for the climacomp CLI.
// It generates synthetic station data, then measures align execution times per
// interval mode, running each test multiple times, treating the first successful
// cached run as cold and averaging the rest as warm, and writes a CSV summary.
//
// Prerequisites:
// - climacomp binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated station files (created if missing)
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Mode        string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one synthetic station set.
type Dataset struct {
	Name      string
	Stations  int
	Frequency string
	State     int
	FromYear  int
	ToYear    int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
	Modes       map[string][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "monthly-small", Stations: 10, Frequency: "monthly", State: 1, FromYear: 1981, ToYear: 2010},
			{Name: "monthly-large", Stations: 200, Frequency: "monthly", State: 1, FromYear: 1951, ToYear: 2020},
			{Name: "daily-small", Stations: 10, Frequency: "daily", State: 2, FromYear: 1981, ToYear: 2010},
			{Name: "daily-large", Stations: 100, Frequency: "daily", State: 2, FromYear: 1961, ToYear: 2020},
		},
		Modes: map[string][]string{
			"monthly": {"trimester"},
			"daily":   {"5days", "10days", "15days"},
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range config.Datasets {
		if err := generateDataset(config.WorkDir, ds); err != nil {
			fmt.Printf("Failed to generate %s: %v\n", ds.Name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("climacomp", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the climacomp binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("climacomp"); err != nil {
		return fmt.Errorf("climacomp binary not found in PATH")
	}
	return nil
}

// generateDataset writes the series files and manifest of a dataset.
// D is a seasonal cycle with noise and I a slower oscillation, so every mean is finite.
func generateDataset(workDir string, ds Dataset) error {
	dir := filepath.Join(workDir, ds.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var manifest strings.Builder
	manifest.WriteString("stations:\n")
	for s := 0; s < ds.Stations; s++ {
		code := fmt.Sprintf("ST%04d", s)
		dFile := code + "_d.txt"
		iFile := code + "_i.txt"
		if err := writeSeries(filepath.Join(dir, dFile), ds, float64(s), 12); err != nil {
			return err
		}
		if err := writeSeries(filepath.Join(dir, iFile), ds, float64(s)/3, 40); err != nil {
			return err
		}
		fmt.Fprintf(&manifest, "  - code: %s\n    state: %d\n    d: {file: %s, frequency: %s}\n    i: {file: %s, frequency: %s}\n",
			code, ds.State, dFile, ds.Frequency, iFile, ds.Frequency)
	}
	return os.WriteFile(filepath.Join(dir, "stations.yaml"), []byte(manifest.String()), 0o644)
}

func writeSeries(path string, ds Dataset, phase, period float64) error {
	var b strings.Builder
	b.WriteString("date value\n")
	step := 0.0
	for y := ds.FromYear; y <= ds.ToYear; y++ {
		for m := time.January; m <= time.December; m++ {
			if ds.Frequency == "monthly" {
				fmt.Fprintf(&b, "%d-%02d %.3f\n", y, int(m), 10*math.Sin(2*math.Pi*(step+phase)/period))
				step++
				continue
			}
			days := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
			for d := 1; d <= days; d++ {
				fmt.Fprintf(&b, "%d-%02d-%02d %.3f\n", y, int(m), d, 10*math.Sin(2*math.Pi*(step+phase)/(period*30)))
				step++
			}
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Benchmarking %s\n", ds.Name)
		dir := filepath.Join(config.WorkDir, ds.Name)
		for _, mode := range config.Modes[ds.Frequency] {
			results = append(results, runBenchmarkSuite(config, ds, dir, mode))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for one mode
func runBenchmarkSuite(config BenchmarkConfig, ds Dataset, dir, mode string) BenchmarkResult {
	fmt.Printf("Running align --mode %s on %s\n", mode, ds.Name)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dir, mode, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     ds.Name,
		Mode:        mode,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes align multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir, mode, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"align",
		"--stations", "stations.yaml",
		"--start", "maximum",
		"--mode", mode,
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--color", "no",
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("climacomp", args...)
		cmd.Dir = dir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if the table footer reports a finished alignment
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Aligned") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("climacomp_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "mode", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Mode, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-14s %-10s: No-cache: %s, Cold: %s, Warm: %s\n",
			result.Dataset, result.Mode, result.NoCacheTime, result.ColdTime, result.WarmTime)
	}
}
