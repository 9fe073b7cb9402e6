package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"localjudge/internal/compiler"
	"localjudge/internal/config"
	"localjudge/internal/executor"
	"localjudge/internal/judge"
	"localjudge/internal/language"
	"localjudge/internal/testcase"
)

var (
	configPath  string
	compareFlag string
	modeFlag    string
	timeLimitMS int
	verbose     bool

	caseName     string
	caseInput    string
	caseExpected string
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	root := &cobra.Command{
		Use:   "judge",
		Short: "Judge solutions against their test cases from the command line",
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [source]",
		Short: "Compile and judge a source file against its stored test cases",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().StringVar(&compareFlag, "compare", "", "Comparison mode (exact, trim, ignore_whitespace)")
	runCmd.Flags().StringVar(&modeFlag, "mode", "", "Execution mode (sequential, sequential_live, parallel)")
	runCmd.Flags().IntVar(&timeLimitMS, "time-limit", 0, "Time limit per test in milliseconds")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{
		Use:   "compile [source]",
		Short: "Compile a source file without judging",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	})

	root.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "List registered languages",
		RunE:  runLanguages,
	})

	root.AddCommand(&cobra.Command{
		Use:   "clear-cache",
		Short: "Drop all cached compilation artifacts",
		RunE:  runClearCache,
	})

	tcCmd := &cobra.Command{
		Use:   "testcase",
		Short: "Manage test cases stored beside a source file",
	}
	addCmd := &cobra.Command{
		Use:   "add [source]",
		Short: "Add a test case",
		Args:  cobra.ExactArgs(1),
		RunE:  runTestcaseAdd,
	}
	addCmd.Flags().StringVar(&caseName, "name", "", "Test case name")
	addCmd.Flags().StringVar(&caseInput, "input", "", "Input fed on stdin")
	addCmd.Flags().StringVar(&caseExpected, "expected", "", "Expected output")
	tcCmd.AddCommand(addCmd)
	tcCmd.AddCommand(&cobra.Command{
		Use:   "list [source]",
		Short: "List test cases",
		Args:  cobra.ExactArgs(1),
		RunE:  runTestcaseList,
	})
	tcCmd.AddCommand(&cobra.Command{
		Use:   "rm [source] [id]",
		Short: "Remove a test case by id",
		Args:  cobra.ExactArgs(2),
		RunE:  runTestcaseRemove,
	})
	root.AddCommand(tcCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/judge.yaml"
	}
	return config.Load(path)
}

func buildJudge(cfg *config.Config) (*judge.Judge, *compiler.Compiler, *language.Registry) {
	registry := language.NewRegistry()
	registry.Reload(cfg.LanguageConfigs())

	comp := compiler.New(registry, compiler.NewMemoryCache(), cfg.OutputDir(), nil)
	exe := executor.New(registry, cfg.TimeLimit(), nil)

	j := judge.New(registry, comp, exe, nil, nil)
	j.SetComparisonMode(judge.CompareMode(cfg.Judge.Comparison))
	j.SetExecMode(judge.ExecMode(cfg.Judge.ExecutionMode))
	return j, comp, registry
}

func runRun(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if compareFlag != "" {
		if !judge.ValidCompareMode(compareFlag) {
			return fmt.Errorf("unknown comparison mode %q", compareFlag)
		}
		cfg.Judge.Comparison = compareFlag
	}
	if modeFlag != "" {
		if !judge.ValidExecMode(modeFlag) {
			return fmt.Errorf("unknown execution mode %q", modeFlag)
		}
		cfg.Judge.ExecutionMode = modeFlag
	}
	if timeLimitMS > 0 {
		cfg.Judge.TimeLimitMS = timeLimitMS
	}

	cases, err := testcase.Load(source)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no test cases for %s; add one with 'judge testcase add'", source)
	}

	j, _, _ := buildJudge(cfg)

	// Ctrl-C cancels the batch; remaining cases report as stopped.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := j.JudgeAll(ctx, source, cases, func(i int, r judge.TestResult) {
		printResult(cases[i], r)
	})

	fmt.Printf("\n%s  %d/%d passed in %s\n",
		run.Verdict, countAccepted(run.Results), len(run.Results), run.Elapsed.Round(time.Millisecond))

	if run.Verdict != judge.VerdictAccepted {
		os.Exit(1)
	}
	return nil
}

func countAccepted(results []judge.TestResult) int {
	n := 0
	for _, r := range results {
		if r.Verdict == judge.VerdictAccepted {
			n++
		}
	}
	return n
}

func printResult(tc testcase.TestCase, r judge.TestResult) {
	name := tc.Name
	if name == "" {
		name = tc.ID
	}
	fmt.Printf("[%s] %s (%s)\n", r.Verdict, name, r.Elapsed.Round(time.Millisecond))

	switch r.Verdict {
	case judge.VerdictWrongAnswer:
		fmt.Printf("  expected: %q\n  got:      %q\n", r.Expected, r.Output)
	case judge.VerdictRuntimeError:
		fmt.Printf("  %s (exit code %d)\n", r.Message, r.ExitCode)
		if r.Stderr != "" {
			fmt.Printf("  stderr: %s\n", r.Stderr)
		}
	case judge.VerdictCompileError, judge.VerdictInternal, judge.VerdictTimeLimit:
		if r.Message != "" {
			fmt.Printf("  %s\n", r.Message)
		}
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, comp, _ := buildJudge(cfg)

	res := comp.Compile(context.Background(), source)
	if !res.Success {
		fmt.Printf("compile failed (%s):\n%s\n", res.Kind, res.Error)
		os.Exit(1)
	}
	if res.ArtifactPath != "" {
		fmt.Printf("compiled to %s in %s\n", res.ArtifactPath, res.Elapsed.Round(time.Millisecond))
	} else {
		fmt.Println("interpreted language, nothing to compile")
	}
	if res.Cached {
		fmt.Println("(cache hit)")
	}
	return nil
}

func runLanguages(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, _, registry := buildJudge(cfg)

	for _, d := range registry.Languages() {
		kind := "interpreted"
		if d.Compiled() {
			kind = "compiled"
		}
		fmt.Printf("%-12s %-14s %-11s %v\n", d.ID, d.Name, kind, d.Extensions)
	}
	return nil
}

func runClearCache(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The in-memory cache dies with the process; what persists between CLI
	// invocations is the artifact directory.
	if err := os.RemoveAll(cfg.OutputDir()); err != nil {
		return fmt.Errorf("removing artifact directory: %w", err)
	}
	fmt.Printf("removed %s\n", cfg.OutputDir())
	return nil
}

func runTestcaseAdd(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	tc, err := testcase.Add(source, caseName, caseInput, caseExpected)
	if err != nil {
		return err
	}
	fmt.Printf("added %q (%s)\n", tc.Name, tc.ID)
	return nil
}

func runTestcaseList(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cases, err := testcase.Load(source)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Println("no test cases")
		return nil
	}
	for _, tc := range cases {
		fmt.Printf("%s  %-20s input=%q expected=%q\n", tc.ID, tc.Name, tc.Input, tc.Expected)
	}
	return nil
}

func runTestcaseRemove(cmd *cobra.Command, args []string) error {
	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := testcase.Delete(source, args[1]); err != nil {
		return err
	}
	fmt.Println("removed")
	return nil
}
