// Package runner registers and executes end-to-end scenarios against a running returns service.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

// Test is a single end-to-end scenario.
type Test struct {
	Name        string
	Description string
	Run         func(ctx context.Context, cfg *Config) error
}

// Config points the scenarios at a deployment.
type Config struct {
	Env        string
	ReturnsURL string

	// ExistingOrderID must exist in the Orders service behind ReturnsURL.
	ExistingOrderID int64
	// MissingOrderID must not exist in the Orders service.
	MissingOrderID int64

	// RabbitURL enables event assertions when set.
	RabbitURL string
	Exchange  string

	Timeout time.Duration
}

// Result is the outcome of one scenario.
type Result struct {
	Test     *Test
	Passed   bool
	Skipped  bool
	Duration time.Duration
	Error    error
}

// ErrSkip is returned by a scenario whose prerequisites are not configured.
var ErrSkip = errors.New("skipped")

var registry = make(map[string]*Test)

// Register adds a scenario (called from init() in package tests).
func Register(t *Test) {
	if _, exists := registry[t.Name]; exists {
		panic(fmt.Sprintf("test %q already registered", t.Name))
	}
	registry[t.Name] = t
}

// AllTests returns every registered scenario sorted by name.
func AllTests() []*Test {
	tests := make([]*Test, 0, len(registry))
	for _, t := range registry {
		tests = append(tests, t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests
}

// ListTests prints all available scenarios.
func ListTests() {
	fmt.Println("Available tests:")
	for _, t := range AllTests() {
		fmt.Printf("  %-25s %s\n", t.Name, t.Description)
	}
}

// RunTest executes one scenario under cfg.Timeout.
func RunTest(ctx context.Context, t *Test, cfg *Config) *Result {
	start := time.Now()

	testCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err := t.Run(testCtx, cfg)
	r := &Result{Test: t, Duration: time.Since(start)}
	switch {
	case err == nil:
		r.Passed = true
	case errors.Is(err, ErrSkip):
		r.Passed, r.Skipped = true, true
	default:
		r.Error = err
	}
	printResult(r)
	return r
}

// RunAll executes every scenario in name order.
func RunAll(ctx context.Context, cfg *Config) []*Result {
	tests := AllTests()
	results := make([]*Result, 0, len(tests))
	for _, t := range tests {
		results = append(results, RunTest(ctx, t, cfg))
	}
	return results
}

// RunSingle executes a scenario by name.
func RunSingle(ctx context.Context, name string, cfg *Config) (*Result, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown test: %s", name)
	}
	return RunTest(ctx, t, cfg), nil
}

func printResult(r *Result) {
	status := "✓ PASS"
	switch {
	case r.Skipped:
		status = "- SKIP"
	case !r.Passed:
		status = "✗ FAIL"
	}

	fmt.Printf("%s  %-25s  (%v)\n", status, r.Test.Name, r.Duration.Round(time.Millisecond))
	if r.Error != nil {
		fmt.Fprintf(os.Stderr, "       Error: %v\n", r.Error)
	}
}

// PrintSummary prints totals and the failed scenarios.
func PrintSummary(results []*Result) {
	var passed, failed, skipped int
	var total time.Duration
	for _, r := range results {
		total += r.Duration
		switch {
		case r.Skipped:
			skipped++
		case r.Passed:
			passed++
		default:
			failed++
		}
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────")
	fmt.Printf("Total: %d  Passed: %d  Skipped: %d  Failed: %d  Duration: %v\n",
		len(results), passed, skipped, failed, total.Round(time.Millisecond))

	for _, r := range results {
		if !r.Passed {
			fmt.Printf("  - %s: %v\n", r.Test.Name, r.Error)
		}
	}
}

// LoadConfig builds a Config for env, applying E2E_* environment overrides.
func LoadConfig(env string) *Config {
	cfg := &Config{
		Env:             env,
		ReturnsURL:      os.Getenv("E2E_RETURNS_URL"),
		ExistingOrderID: envInt64("E2E_EXISTING_ORDER_ID", 1),
		MissingOrderID:  envInt64("E2E_MISSING_ORDER_ID", 999999),
		RabbitURL:       os.Getenv("E2E_RABBIT_URL"),
		Exchange:        os.Getenv("E2E_EVENTS_EXCHANGE"),
		Timeout:         30 * time.Second,
	}

	if cfg.ReturnsURL == "" {
		switch env {
		case "dev":
			cfg.ReturnsURL = "https://returns-dev.cornjacket.com"
		case "staging":
			cfg.ReturnsURL = "https://returns-staging.cornjacket.com"
		default:
			cfg.ReturnsURL = "http://localhost:8004"
		}
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "events_topic"
	}

	return cfg
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
