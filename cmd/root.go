// Package cmd provides the CLI surface for gitprompt.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/gitprompt/internal/adapters/gogit"
	"github.com/xvierd/gitprompt/internal/adapters/porcelain"
	"github.com/xvierd/gitprompt/internal/config"
	"github.com/xvierd/gitprompt/internal/ports"
	"github.com/xvierd/gitprompt/internal/render"
	"github.com/xvierd/gitprompt/internal/repopath"
	"github.com/xvierd/gitprompt/internal/services"
)

var (
	// Version info (set at build time via ldflags)
	Version = "dev"

	// Flags; unset flags fall back to the config file values.
	debugFlag   bool
	sparseFlag  bool
	colorFlag   string
	backendFlag string
	hashLenFlag int
)

// errInternal signals Execute to exit non-zero after the error marker
// has already been printed.
var errInternal = errors.New("internal error")

// rootCmd is the whole program: classify the repository at the given
// path (default: the working directory) and print one status line.
var rootCmd = &cobra.Command{
	Use:   "gitprompt [path]",
	Short: "Print a one-line git status for shell prompts",
	Long: `gitprompt inspects the repository containing the given path (or the
current directory) and prints a single deterministic status line:
branch, upstream divergence, staged and unstaged change counts, and
any in-progress merge or rebase conflict. It never mutates the
repository and is meant to be invoked once per prompt render.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPrompt,
}

// Execute runs the root command and maps failures to the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the failure cause to stderr on internal errors")
	rootCmd.Flags().BoolVar(&sparseFlag, "sparse", false, "Shorten the upstream portion of the line")
	rootCmd.Flags().StringVar(&colorFlag, "color", "", "Colorize output: auto, always, or never")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "Acquisition backend: git (subprocess) or gogit (in-process)")
	rootCmd.Flags().IntVar(&hashLenFlag, "hash-len", 0, "Displayed commit hash length")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("gitprompt {{.Version}}\n")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	// Config failures fall back to defaults: a broken config file must
	// not break the prompt.
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	applyFlagOverrides(cmd, cfg)

	opts := render.Options{
		Decorate: decorate(cfg.Display.Color),
		Sparse:   cfg.Display.Sparse,
		HashLen:  cfg.Display.HashLen,
		Theme:    cfg.Theme,
	}

	pwd, err := os.Getwd()
	if err != nil {
		return fail(opts, fmt.Errorf("failed to get working directory: %w", err))
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	dir := repopath.Resolve(pwd, arg)

	root, err := repopath.FindRepoRoot(dir)
	if errors.Is(err, ports.ErrNoRepository) {
		// Expected outcome, not a failure: a prompt renders outside
		// repositories all the time.
		fmt.Println(marker(opts, "no repo"))
		return nil
	}
	if err != nil {
		return fail(opts, err)
	}

	reader, err := newReader(cfg.Backend, root)
	if err != nil {
		return fail(opts, err)
	}

	state, err := services.NewStatusService(reader).Classify(context.Background())
	if err != nil {
		return fail(opts, err)
	}

	fmt.Println(render.Line(state, opts))
	return nil
}

// applyFlagOverrides lets explicitly set flags win over config values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("sparse") {
		cfg.Display.Sparse = sparseFlag
	}
	if cmd.Flags().Changed("color") {
		cfg.Display.Color = colorFlag
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = backendFlag
	}
	if cmd.Flags().Changed("hash-len") {
		cfg.Display.HashLen = hashLenFlag
	}
}

// newReader selects the acquisition backend.
func newReader(backend, root string) (ports.StatusReader, error) {
	switch backend {
	case "", "git":
		return porcelain.New(root), nil
	case "gogit":
		return gogit.New(root)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// decorate resolves the color mode, probing stdout for auto.
func decorate(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(os.Stdout.Fd())
	}
}

// marker renders one of the fixed bracketed markers, styled like the
// rest of the output when decoration is on.
func marker(opts render.Options, text string) string {
	if opts.Decorate {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(opts.Theme.ColorConflict))
		return "[" + style.Render(text) + "]"
	}
	return "[" + text + "]"
}

// fail prints the fixed error marker on stdout so the consuming shell
// prompt never sees a malformed line, dumps the cause to stderr only
// under --debug, and signals a non-zero exit.
func fail(opts render.Options, err error) error {
	fmt.Println(marker(opts, "error"))
	if debugFlag {
		fmt.Fprintln(os.Stderr, err)
	}
	return errInternal
}
