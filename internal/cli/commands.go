package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/astral/internal/version"
	"github.com/arthur-debert/astral/pkg/config"
	"github.com/arthur-debert/astral/pkg/datastore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/module"
	"github.com/arthur-debert/astral/pkg/paths"
	"github.com/arthur-debert/astral/pkg/watcher"
)

type globalFlags struct {
	verbosity int
	configDir string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "astral",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", MsgFlagConfigDir)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newContextCmd(flags))
	rootCmd.AddCommand(newCleanupCmd(flags))
	rootCmd.AddCommand(newWatchCmd(flags))

	return rootCmd
}

// loadConfig reads the settings and raises the log level when the settings
// ask for more than the command line did.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	dir := f.configDir
	if dir == "" {
		dir = paths.New().ConfigDir
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = paths.Expand(dir, wd)
	}

	cfg, err := config.Load(dir, nil)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Verbosity > f.verbosity {
		logging.SetLevel(cfg.Logging.Verbosity)
	}
	return cfg, nil
}

func (f *globalFlags) loadManager() (*module.Manager, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	return module.NewManager(cfg, nil, nil)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			st := newStyles(out)
			fmt.Fprintf(out, "%s %s\n", st.Title.Render("astral version"), st.Count.Render(version.Version))
			fmt.Fprintf(out, "  %s %s\n", st.Muted.Render("commit:"), version.Commit)
			fmt.Fprintf(out, "  %s  %s\n", st.Muted.Render("built:"), version.Date)
		},
	}
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var block, event string

	cmd := &cobra.Command{
		Use:   "run",
		Short: MsgRunShort,
		Long:  MsgRunLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flags.loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			if err := manager.Setup(); err != nil {
				return err
			}
			if block != module.BlockOnSetup {
				if err := manager.Fire(block); err != nil {
					return err
				}
			}
			if event != "" {
				manager.Event(event)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&block, "block", module.BlockOnStartup, MsgFlagBlock)
	cmd.Flags().StringVar(&event, "event", "", MsgFlagEvent)
	return cmd
}

func newContextCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: MsgContextShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flags.loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			out, err := config.MarshalYAML(manager.Context())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newCleanupCmd(flags *globalFlags) *cobra.Command {
	var dryRun, setup bool

	cmd := &cobra.Command{
		Use:   "cleanup <module>",
		Short: MsgCleanupShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			name := args[0]

			created, err := datastore.NewCreatedFiles(nil, cfg.Paths.DataDir)
			if err != nil {
				return err
			}
			count := len(created.By(name))
			if err := created.Cleanup(name, dryRun); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			if dryRun {
				fmt.Fprintf(out, MsgWouldClean, st.Count.Render(strconv.Itoa(count)), st.Module.Render(name))
				return nil
			}
			fmt.Fprintf(out, MsgCleanedUp, st.Count.Render(strconv.Itoa(count)), st.Module.Render(name))

			if setup {
				executed, err := datastore.NewExecutedActions(nil, cfg.Paths.DataDir, name)
				if err != nil {
					return err
				}
				return executed.Reset()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	cmd.Flags().BoolVar(&setup, "setup", false, MsgFlagSetup)
	return cmd
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: MsgWatchShort,
		Long:  MsgWatchLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := flags.loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			if err := manager.Setup(); err != nil {
				return err
			}
			manager.Startup()
			defer manager.Exit()

			w, err := watcher.New(manager.Directories(), func(path string) {
				manager.FileModified(path)
			})
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events := make(chan struct{})
			go func() {
				defer close(events)
				manager.WatchEvents(ctx)
			}()

			err = w.Run(ctx)
			stop()
			<-events
			return err
		},
	}
}

// Execute runs the root command with a background context.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
