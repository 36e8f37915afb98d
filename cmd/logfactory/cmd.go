package main

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Station-Manager/logfactory"
	"github.com/Station-Manager/logfactory/sentry"
)

// Version is injected at build time.
var Version = "dev"

const (
	appName  = "logfactory"
	appShort = "logfactory inspects and exercises logger factory configurations"

	configFlagName      = "config"
	configShortFlagName = "c"
	configFlagUsage     = `
		path of the YAML configuration file; LOGFACTORY_CONFIG_FILE is used when empty`

	categoryFlagName = "category"
	labelFlagName    = "label"
	levelFlagName    = "level"

	validateCmdShort = "Build every default transport and report the result"
	validateCmdLong  = `
		Loads the configuration and builds each entry of its transports section.
		One line is printed per transport that was built; the command fails if
		any entry could not be built.`

	printCmdShort = "Print the effective configuration as YAML"
	printCmdLong  = `
		Prints the configuration obtained by layering the built-in defaults, the
		configuration file and LOGFACTORY_* environment variables.`

	emitCmdShort   = "Write one event through a logger"
	emitCmdExample = `
		logfactory emit -c logging.yaml --category billing --label billing-api --level warn "invoice overdue"`

	versionCmdShort = "Display the " + appName + " version"
)

type rootFlags struct {
	configPath string
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, configFlagName, configShortFlagName, "", heredoc.Doc(configFlagUsage))
	cmd.AddCommand(
		validateCmd(flags),
		printCmd(flags),
		emitCmd(flags),
		versionCmd(),
	)
	return cmd
}

func loadConfig(flags *rootFlags, cmd *cobra.Command) (*logfactory.Config, error) {
	var opts []logfactory.LoaderOption
	if flags.configPath != "" {
		opts = append(opts, logfactory.WithConfigFile(flags.configPath))
	}
	cfg, err := logfactory.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg.Diagnostics = cmd.ErrOrStderr()
	return cfg, nil
}

// imports are the transport types the CLI offers on top of the built-in ones.
func imports() logfactory.Imports {
	return logfactory.Imports{
		Transports: []logfactory.Registration{{Type: sentry.Type}},
	}
}

func validateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: heredoc.Doc(validateCmdShort),
		Long:  heredoc.Doc(validateCmdLong),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, cmd)
			if err != nil {
				return err
			}

			registry := logfactory.NewRegistry()
			for _, r := range imports().Transports {
				if err = registry.Register(r.Type, r.Defaults); err != nil {
					return err
				}
			}

			built, buildErr := registry.BuildAll(cfg.Transports, "")
			names := make([]string, 0, len(built))
			for name := range built {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				t := built[name]
				fmt.Fprintf(out, "ok\t%s\t%s\tlevel=%s silent=%t\n", name, t.Name(), t.Level(), t.Silent())
				_ = t.Close()
			}
			if buildErr != nil {
				fmt.Fprintf(out, "failed\t%s\n", buildErr)
				return buildErr
			}
			return nil
		},
	}
}

func printCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: heredoc.Doc(printCmdShort),
		Long:  heredoc.Doc(printCmdLong),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err = enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

type emitFlags struct {
	category string
	label    string
	level    string
}

func emitCmd(flags *rootFlags) *cobra.Command {
	ef := &emitFlags{}

	cmd := &cobra.Command{
		Use:     "emit <message>",
		Short:   heredoc.Doc(emitCmdShort),
		Example: heredoc.Doc(emitCmdExample),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, cmd)
			if err != nil {
				return err
			}

			var svc *logfactory.Service
			err = logfactory.Setup(cfg, imports(), func(setupErr error, s *logfactory.Service) {
				svc = s
			})
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			log, err := svc.Create(ef.category, ef.label, nil)
			if err != nil {
				return err
			}

			event, err := eventFor(log, ef.level)
			if err != nil {
				return err
			}
			event.Msg(strings.Join(args, " "))
			return nil
		},
	}

	cmd.Flags().StringVar(&ef.category, categoryFlagName, appName, "category of the logger to create")
	cmd.Flags().StringVar(&ef.label, labelFlagName, "", "label stamped on every transport")
	cmd.Flags().StringVar(&ef.level, levelFlagName, "info", "event level (trace, debug, info, warn, error)")
	return cmd
}

func eventFor(log logfactory.EventLogger, level string) (logfactory.LogEvent, error) {
	switch strings.ToLower(level) {
	case "trace", "silly":
		return log.TraceWith(), nil
	case "debug", "verbose":
		return log.DebugWith(), nil
	case "info":
		return log.InfoWith(), nil
	case "warn", "warning":
		return log.WarnWith(), nil
	case "error":
		return log.ErrorWith(), nil
	default:
		return nil, fmt.Errorf("unsupported event level %q", level)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: heredoc.Doc(versionCmdShort),
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s, Go Version: %s\n", appName, Version, runtime.Version())
		},
	}
}
