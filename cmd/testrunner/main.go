// Command testrunner runs precompiled test binaries (go test -c) inside the
// deployment image: unit tests for every package, then the selected
// integration tests one package at a time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

type options struct {
	testsDir         string
	short            bool
	pkgParallel      int
	count            int
	integrationRun   string
	integrationPaths string
	verbose          bool
	timeout          time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.testsDir, "tests-dir", "/app/tests", "directory containing compiled test binaries")
	flag.BoolVar(&opts.short, "short", false, "run tests with -test.short")
	flag.IntVar(&opts.pkgParallel, "pkg-parallel", runtime.NumCPU(), "number of packages to run in parallel")
	flag.IntVar(&opts.count, "count", 1, "pass -test.count to disable caching when set to 1")
	flag.StringVar(&opts.integrationRun, "integration-run", "Integration$", "regex of integration test(s) to run with -test.run")
	flag.StringVar(&opts.integrationPaths, "integration-path", "", "comma separated package paths like 'api/router,api/config' for the integration run")
	flag.BoolVar(&opts.verbose, "v", true, "add -test.v to test binaries")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "per binary timeout")
	flag.Parse()

	if err := run(opts); err != nil {
		slog.Error("test run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("all tests passed")
}

func run(opts options) error {
	bins, err := collectTestBinaries(opts.testsDir)
	if err != nil {
		return err
	}
	if len(bins) == 0 {
		return errors.New("no test binaries found")
	}

	integrationBins, err := resolveIntegration(opts.testsDir, opts.integrationPaths)
	if err != nil {
		return err
	}

	// Integration packages still get their unit pass; -short keeps their
	// integration tests skipped there.
	slog.Info("running unit tests", "binaries", len(bins))
	unitArgs := testArgs(opts.verbose, true, opts.count, 0)
	if err := runBinaries(bins, unitArgs, opts.pkgParallel, opts.timeout); err != nil {
		return err
	}

	for _, bin := range integrationBins {
		slog.Info("running integration tests", "binary", bin, "run", opts.integrationRun)
		args := testArgs(opts.verbose, opts.short, opts.count, 1)
		args = append(args, "-test.run", opts.integrationRun)
		if err := runBinaries([]string{bin}, args, 1, opts.timeout); err != nil {
			return err
		}
	}
	return nil
}

func resolveIntegration(testsDir, paths string) ([]string, error) {
	if strings.TrimSpace(paths) == "" {
		return nil, nil
	}
	var bins []string
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		bin := filepath.Join(testsDir, filepath.FromSlash(p)+".test")
		if _, err := os.Stat(bin); err != nil {
			return nil, fmt.Errorf("integration binary not found at %s: %w", bin, err)
		}
		bins = append(bins, bin)
	}
	return bins, nil
}

func collectTestBinaries(root string) ([]string, error) {
	var bins []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".test") {
			bins = append(bins, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(bins)
	return bins, nil
}

func testArgs(verbose, short bool, count, testParallel int) []string {
	var args []string
	if verbose {
		args = append(args, "-test.v")
	}
	if short {
		args = append(args, "-test.short")
	}
	if count > 0 {
		args = append(args, fmt.Sprintf("-test.count=%d", count))
	}
	if testParallel > 0 {
		args = append(args, fmt.Sprintf("-test.parallel=%d", testParallel))
	}
	return args
}

func runBinaries(bins []string, args []string, parallel int, timeout time.Duration) error {
	if len(bins) == 0 {
		return nil
	}
	if parallel < 1 {
		parallel = 1
	}
	sem := make(chan struct{}, parallel)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, b := range bins {
		b := b
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := runBinary(b, args, timeout); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func runBinary(bin string, args []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	cmd.Dir = workDir(bin)
	slog.Info("run", "binary", bin, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", bin, err)
	}
	return nil
}

// workDir runs a binary from its package-like directory so config.LoadConfig
// finds the .env file by walking up.
func workDir(bin string) string {
	if wd := strings.TrimSuffix(bin, ".test"); wd != bin {
		if fi, err := os.Stat(wd); err == nil && fi.IsDir() {
			return wd
		}
	}
	return "/app"
}
