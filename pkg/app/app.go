// Package app builds cobra commands from options that carry their own
// flags, defaults and validation.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// RunFunc is the entry point of an application once its options are loaded.
type RunFunc func() error

// App is a command line application.
type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	noConfig    bool
	commands    []*cobra.Command
	args        cobra.PositionalArgs
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithOptions sets the options the application reads flags and config into.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the application entry point.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig disables the --config flag.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithValidArgs sets the positional argument validator.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithCommands adds subcommands.
func WithCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.commands = append(a.commands, cmds...) }
}

// NewApp creates an App.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{name: name, shortDesc: shortDesc}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true
	cmd.AddCommand(a.commands...)

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		addConfigFlag(a.name, fss.FlagSet("global"))
	}
	for _, f := range fss.FlagSets {
		cmd.PersistentFlags().AddFlagSet(f)
	}

	cliflag.SetUsageAndHelpFunc(cmd, fss, 0)

	a.cmd = cmd
}

// Command returns the root cobra command.
func (a *App) Command() *cobra.Command { return a.cmd }

// Run executes the application and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if err := a.LoadOptions(cmd); err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	return a.runFunc()
}

// LoadOptions merges config file and environment values into the options,
// then completes and validates them. Flags set on the command line win.
// Subcommands sharing the root options call it from their RunE.
func (a *App) LoadOptions(cmd *cobra.Command) error {
	if a.options == nil {
		return nil
	}

	if !a.noConfig {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := viper.Unmarshal(a.options); err != nil {
			return fmt.Errorf("failed to load options: %w", err)
		}
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	return a.options.Validate()
}
