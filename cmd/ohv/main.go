package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ohv-go/internal/app"
	"ohv-go/internal/config"
	"ohv-go/internal/ohv"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	projectRoot string
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorize(os.Stderr, red, "error:"), describeError(err))
		os.Exit(1)
	}
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// Calling cancel stops the signal relay.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the project config from the project root.
func loadConfig() (*config.Config, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cfg, err := config.Load(app.ConfigPath(root), root)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp reads the config and creates an OHVApp. The caller must defer app.Close().
func newApp(ctx context.Context, operation string, args []string) (*app.OHVApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewOHVApp(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// colorize wraps s in an ANSI colour when w is a terminal.
func colorize(w io.Writer, code, s string) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

const (
	green  = "32"
	yellow = "33"
	red    = "31"
)

// describeError adds a hint for the error kinds a user can act on.
func describeError(err error) string {
	var conflict *ohv.PatchConflictError
	var fetchErr *ohv.RemoteFetchError
	var initErr *ohv.StoreInitError
	switch {
	case errors.As(err, &conflict):
		return fmt.Sprintf("%v\nresolve the customization of %s by hand; no snapshot was written for it", err, conflict.Path)
	case errors.As(err, &fetchErr):
		return fmt.Sprintf("%v\ncheck the version and remote settings", err)
	case errors.As(err, &initErr):
		return fmt.Sprintf("%v\nfix or remove %s", err, initErr.Path)
	case errors.Is(err, ohv.ErrAlreadyExists):
		return fmt.Sprintf("%v\nthe working copy is already present", err)
	default:
		return err.Error()
	}
}

var rootCmd = &cobra.Command{
	Use:           "ohv",
	Short:         "Carry local customizations of upstream files across versions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// init command
var initCmd = &cobra.Command{
	Use:   "init [DIRECTORY]",
	Short: "Create a new ohv.toml in the target directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		repo, _ := cmd.Flags().GetString("repo")

		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}

		path := app.ConfigPath(dir)
		if err := config.Init(path, config.NewConfig(owner, repo)); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", path)
		return nil
	},
}

// touch command
var touchCmd = &cobra.Command{
	Use:   "touch REF PATH",
	Short: "Ensure a file is checked out",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		a, err := newApp(ctx, "touch", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Touch(ctx, args[1], args[0])
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate VERSION",
	Short: "Migrate tracked files to a specific version",
	Long: `Migrate replays each tracked file's local changes onto VERSION and writes
the results to <build_root>/VERSION/<path>.

With --file, only that path is migrated and the result is printed to stdout
instead of being written to the build area.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		file, _ := cmd.Flags().GetString("file")

		a, err := newApp(ctx, "migrate", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if file != "" {
			r, err := a.MigrateFile(ctx, file, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Content)
			return nil
		}

		results, err := a.Migrate(ctx, args[0])
		for _, r := range results {
			fmt.Printf("%s  %s  %s -> %s  (%d hunks)\n", colorize(os.Stdout, green, "migrated"), r.Path, r.From, r.To, r.Hunks)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Migrated %d file(s) to %s\n", len(results), args[0])
		return nil
	},
}

// diff command
var diffCmd = &cobra.Command{
	Use:   "diff FROM TO PATH",
	Short: "Show the patch between two versions of a file (either may be \"local\")",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		a, err := newApp(ctx, "diff", args)
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := a.Diff(ctx, args[2], args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List tracked files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := setupSignalHandler()
		defer cancel()

		a, err := newApp(ctx, "status", args)
		if err != nil {
			return err
		}
		defer a.Close()

		statuses, err := a.Status()
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No tracked files.")
			return nil
		}

		for _, s := range statuses {
			state := colorize(os.Stdout, green, "present")
			if !s.Present {
				state = colorize(os.Stdout, yellow, "missing")
			}
			fmt.Printf("%-10s  %-7s  %s\n", s.OriginVersion, state, s.Path)
		}
		return nil
	},
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	defaults, err := app.GetDefaults()
	defaultRoot := "."
	if err == nil {
		defaultRoot = defaults["project_root"]
	}

	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project-root", "P", defaultRoot, "Project root")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo debug log lines to stderr (overrides log_level)")

	migrateCmd.Flags().String("file", "", "Migrate only this tracked path and print the result instead of writing it")

	initCmd.Flags().String("owner", "owner", "Upstream repository owner")
	initCmd.Flags().String("repo", "repo", "Upstream repository name")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
