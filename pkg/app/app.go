package app

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

// RunFunc defines the application's startup callback function.
type RunFunc func() error

// CliOptions is implemented by a command's aggregated option struct.
type CliOptions interface {
	// AddFlags registers every flag of the command.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills in derived values after flags and config are parsed.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// App is the main application structure: a cobra command wired to a viper
// configuration file, with the precedence flags > config file > defaults.
type App struct {
	name        string
	short       string
	description string
	options     CliOptions
	runFunc     RunFunc
	noConfig    bool

	args       cobra.PositionalArgs
	cmd        *cobra.Command
	configFile string
}

// Option defines optional parameters for initializing the App structure.
type Option func(*App)

// WithDescription sets the long description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithOptions opens the application's function to read from the command line
// or read parameters from the configuration file.
func WithOptions(opts CliOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc sets the application startup callback function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithNoConfig disables the --config flag for commands that take no
// configuration file.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = cobra.NoArgs
	}
}

// NewApp creates an App object based on the given name, short description
// and options.
func NewApp(name string, short string, opts ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}

	for _, o := range opts {
		o(a)
	}

	a.buildCommand()

	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run()
		},
	}

	fs := cmd.Flags()
	if a.options != nil {
		a.options.AddFlags(fs)
	}
	if !a.noConfig {
		fs.StringVarP(&a.configFile, "config", "c", "", "Path to the configuration file.")
	}

	a.cmd = cmd
}

func (a *App) run() error {
	if err := a.loadConfig(); err != nil {
		return err
	}

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.runFunc != nil {
		return a.runFunc()
	}

	return nil
}

// loadConfig merges the configuration file (if any) into the bound flags.
// Explicitly-set flags always win over file values.
func (a *App) loadConfig() error {
	if a.noConfig {
		return nil
	}

	v := viper.New()
	if err := v.BindPFlags(a.cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", a.configFile, err)
		}

		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed; restart to apply", "file", e.Name)
		})
		v.WatchConfig()
	}

	if a.options != nil {
		if err := v.Unmarshal(a.options); err != nil {
			return fmt.Errorf("failed to unmarshal configuration: %w", err)
		}
	}

	return nil
}

// Command returns the underlying cobra command, for composing subcommands.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run launches the application and exits the process on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
