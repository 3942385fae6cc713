// Package main runs the mockroute benchmarks and writes the results as JSON and Markdown.
// Run with: go run benchmarks/run_benchmarks.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BenchmarkResults holds all benchmark data
type BenchmarkResults struct {
	Timestamp   string           `json:"timestamp"`
	Environment Environment      `json:"environment"`
	Suites      map[string]Suite `json:"suites"`
	Summary     Summary          `json:"summary"`
}

type Environment struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPU       string `json:"cpu"`
	NumCPU    int    `json:"num_cpu"`
	GoVersion string `json:"go_version"`
}

type Suite struct {
	Package    string      `json:"package"`
	Benchmarks []Benchmark `json:"benchmarks"`
	Passed     bool        `json:"passed"`
}

type Benchmark struct {
	Name        string  `json:"name"`
	NsPerOp     float64 `json:"ns_per_op"`
	OpsPerSec   float64 `json:"ops_per_sec"`
	BytesPerOp  int64   `json:"bytes_per_op"`
	AllocsPerOp int64   `json:"allocs_per_op"`
}

type Summary struct {
	DispatchNs       float64 `json:"dispatch_ns"`
	HandlerOpsPerSec float64 `json:"handler_ops_per_sec"`
	PickStatusNs     float64 `json:"pick_status_ns"`
}

// suites maps a result key to the package whose benchmarks it runs.
var suites = map[string]string{
	"dispatcher": "./pkg/engine/...",
	"injector":   "./pkg/chaos/...",
}

func main() {
	fmt.Println("==========================================")
	fmt.Println("   MOCKROUTE BENCHMARK SUITE")
	fmt.Println("==========================================")
	fmt.Println()

	results := BenchmarkResults{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Environment: Environment{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPU:       getCPUInfo(),
			NumCPU:    runtime.NumCPU(),
			GoVersion: runtime.Version(),
		},
		Suites: make(map[string]Suite),
	}

	for _, name := range sortedKeys(suites) {
		pkg := suites[name]
		fmt.Printf("Running %s benchmarks (%s)...\n", name, pkg)
		benches, err := runBenchmarks(pkg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", name, err)
		}
		results.Suites[name] = Suite{Package: pkg, Benchmarks: benches, Passed: err == nil}
	}

	results.Summary = calculateSummary(results.Suites)

	jsonPath := "benchmarks/results/latest.json"
	if err := writeJSON(results, jsonPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", jsonPath, err)
		os.Exit(1)
	}
	fmt.Printf("\nJSON results: %s\n", jsonPath)

	mdPath := "benchmarks/results/LATEST.md"
	if err := writeMarkdown(results, mdPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", mdPath, err)
		os.Exit(1)
	}
	fmt.Printf("Markdown results: %s\n", mdPath)

	printSummary(results)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getCPUInfo() string {
	if runtime.GOOS != "linux" {
		return "unknown"
	}
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if name, ok := strings.CutPrefix(line, "model name"); ok {
			if _, v, found := strings.Cut(name, ":"); found {
				return strings.TrimSpace(v)
			}
		}
	}
	return "unknown"
}

func runBenchmarks(pkg string) ([]Benchmark, error) {
	cmd := exec.Command("go", "test", "-run=^$", "-bench=.", "-benchtime=1s", "-benchmem", pkg)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return parseBenchmarkOutput(string(output)), fmt.Errorf("go test: %w", err)
	}
	return parseBenchmarkOutput(string(output)), nil
}

// benchLine matches "BenchmarkName/sub-N  iterations  ns/op  B/op  allocs/op".
var benchLine = regexp.MustCompile(`(Benchmark[\w/]+)-\d+\s+(\d+)\s+([\d.]+)\s+ns/op\s+(\d+)\s+B/op\s+(\d+)\s+allocs/op`)

func parseBenchmarkOutput(output string) []Benchmark {
	var benchmarks []Benchmark
	for _, match := range benchLine.FindAllStringSubmatch(output, -1) {
		nsPerOp, _ := strconv.ParseFloat(match[3], 64)
		bytesPerOp, _ := strconv.ParseInt(match[4], 10, 64)
		allocsPerOp, _ := strconv.ParseInt(match[5], 10, 64)

		opsPerSec := 0.0
		if nsPerOp > 0 {
			opsPerSec = 1e9 / nsPerOp
		}
		benchmarks = append(benchmarks, Benchmark{
			Name:        match[1],
			NsPerOp:     nsPerOp,
			OpsPerSec:   opsPerSec,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}
	return benchmarks
}

func find(suites map[string]Suite, suite, name string) (Benchmark, bool) {
	for _, b := range suites[suite].Benchmarks {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

func calculateSummary(s map[string]Suite) Summary {
	var sum Summary
	if b, ok := find(s, "dispatcher", "BenchmarkDispatch/routes_1000"); ok {
		sum.DispatchNs = b.NsPerOp
	}
	if b, ok := find(s, "dispatcher", "BenchmarkHandler_Dynamic"); ok {
		sum.HandlerOpsPerSec = b.OpsPerSec
	}
	if b, ok := find(s, "injector", "BenchmarkPickStatus"); ok {
		sum.PickStatusNs = b.NsPerOp
	}
	return sum
}

func writeJSON(results BenchmarkResults, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeMarkdown(results BenchmarkResults, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	title := cases.Title(language.English)
	var sb strings.Builder
	sb.WriteString("# mockroute Benchmark Results\n\n")
	fmt.Fprintf(&sb, "**Date:** %s\n\n", results.Timestamp)
	fmt.Fprintf(&sb, "**Environment:** %s/%s, %s (%d cores), %s\n\n",
		results.Environment.OS, results.Environment.Arch, results.Environment.CPU,
		results.Environment.NumCPU, results.Environment.GoVersion)

	for _, name := range sortedKeys(results.Suites) {
		suite := results.Suites[name]
		fmt.Fprintf(&sb, "## %s\n\n", title.String(name))
		if len(suite.Benchmarks) == 0 {
			sb.WriteString("No results.\n\n")
			continue
		}
		sb.WriteString("| Benchmark | ns/op | ops/sec | B/op | allocs/op |\n")
		sb.WriteString("|-----------|-------|---------|------|-----------|\n")
		for _, b := range suite.Benchmarks {
			fmt.Fprintf(&sb, "| %s | %.0f | %.0f | %d | %d |\n",
				b.Name, b.NsPerOp, b.OpsPerSec, b.BytesPerOp, b.AllocsPerOp)
		}
		sb.WriteString("\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func printSummary(results BenchmarkResults) {
	s := results.Summary
	fmt.Println()
	fmt.Println("==========================================")
	fmt.Println("   SUMMARY")
	fmt.Println("==========================================")
	fmt.Printf("Dispatch (1000 routes): %.0f ns/op\n", s.DispatchNs)
	fmt.Printf("Dynamic handler:        %.0f req/s\n", s.HandlerOpsPerSec)
	fmt.Printf("Error draw:             %.0f ns/op\n", s.PickStatusNs)
}
