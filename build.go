//go:build ignore

// Build script for fearcli.
//
//	go run build.go [-target=all|fearproc|test|clean] [-v]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"fearcli/pkg/contracts"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

const distDir = "dist"

// executables maps cmd/ packages to their output names.
var executables = map[string]string{
	"fearproc": "fearproc",
}

type BuildContext struct {
	Target  string
	Verbose bool
	Race    bool
}

func main() {
	ctx := &BuildContext{}
	flag.StringVar(&ctx.Target, "target", "all", "Build target: all, fearproc, test, clean")
	flag.BoolVar(&ctx.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&ctx.Race, "race", true, "Run tests with the race detector")
	flag.Parse()

	printHeader()

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	start := time.Now()
	switch ctx.Target {
	case "all":
		buildAll(ctx)
	case "test":
		runTests(ctx)
	case "clean":
		clean(ctx)
	default:
		if _, ok := executables[ctx.Target]; !ok {
			printError(fmt.Sprintf("Unknown target: %s", ctx.Target))
			flag.Usage()
			os.Exit(2)
		}
		buildExecutable(ctx.Target, ctx)
	}

	printSuccess(fmt.Sprintf("Done in %s", time.Since(start).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "   " + contracts.GetVersionString() + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(ctx *BuildContext) {
	printInfo("Building all executables...")
	for name := range executables {
		buildExecutable(name, ctx)
	}
}

func buildExecutable(name string, ctx *BuildContext) {
	exeName := executables[name]
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X fearcli/pkg/contracts.BuildTime=%s",
		time.Now().UTC().Format(time.RFC3339))
	if commit := gitCommit(); commit != "" {
		ldflags += " -X fearcli/pkg/contracts.GitCommit=" + commit
	}

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

func runTests(ctx *BuildContext) {
	printInfo("Running Go tests...")
	args := []string{"test"}
	if ctx.Race {
		args = append(args, "-race")
	}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

func clean(ctx *BuildContext) {
	printInfo("Cleaning build artifacts...")
	entries, err := os.ReadDir(distDir)
	if err != nil {
		printWarning(fmt.Sprintf("Nothing to clean: %v", err))
		return
	}
	for _, e := range entries {
		path := filepath.Join(distDir, e.Name())
		if ctx.Verbose {
			fmt.Printf("  removing %s\n", path)
		}
		if err := os.RemoveAll(path); err != nil {
			printError(fmt.Sprintf("Failed to remove %s: %v", path, err))
		}
	}
	printSuccess("Build artifacts cleaned")
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
