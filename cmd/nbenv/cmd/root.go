package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giantswarm/nbenv"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nbenv",
	Short: "Notebook instance environment agent",
	Long: `nbenv provisions data-science environments on managed notebook
instances: it installs Miniconda on the persistent volume, creates conda
environments with pinned packages, registers them as Jupyter kernels, and
restarts the notebook service so they appear in the UI.

The on-create and on-start subcommands are invoked by the instance
lifecycle hooks; status and render-template are for operators.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/nbenv/nbenv.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

// initConfig reads the config file and NBENV_* environment variables, then
// installs the configured logger.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/nbenv")
		viper.SetConfigName("nbenv")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("NBENV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine: every setting has a default.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: reading config: %v\n", err)
		}
	}

	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	nbenv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// agentOptions translates the viper settings into nbenv options. Unset
// settings keep the package defaults.
func agentOptions() ([]nbenv.Option, error) {
	var opts []nbenv.Option

	if v := viper.GetString("workdir"); v != "" {
		opts = append(opts, nbenv.WithWorkDir(v))
	}
	if v := viper.GetString("installer-url"); v != "" {
		opts = append(opts, nbenv.WithInstallerURL(v))
	}
	if v := viper.GetString("kernels-root"); v != "" {
		opts = append(opts, nbenv.WithKernelsRoot(v))
	}
	if v := viper.GetString("setup-log"); v != "" {
		opts = append(opts, nbenv.WithSetupLogPath(v))
	}
	if v := viper.GetString("agent-path"); v != "" {
		opts = append(opts, nbenv.WithAgentPath(v))
	}
	if v := viper.GetString("service"); v != "" {
		opts = append(opts, nbenv.WithService(v))
	}
	if v := viper.GetString("restart-strategy"); v != "" {
		strategy, ok := nbenv.ParseRestartStrategy(v)
		if !ok {
			return nil, fmt.Errorf("unknown restart strategy %q", v)
		}
		opts = append(opts, nbenv.WithRestartStrategy(strategy))
	}
	if v := viper.GetInt("service-port"); v != 0 {
		opts = append(opts, nbenv.WithServicePort(v))
	}
	if v := viper.GetDuration("probe-timeout"); v != 0 {
		opts = append(opts, nbenv.WithProbeTimeout(v))
	}
	if viper.IsSet("probe") && !viper.GetBool("probe") {
		opts = append(opts, nbenv.WithoutProbe())
	}

	if viper.IsSet("environments") {
		var envs []nbenv.EnvSpec
		if err := viper.UnmarshalKey("environments", &envs); err != nil {
			return nil, fmt.Errorf("parse environments: %w", err)
		}
		opts = append(opts, nbenv.WithEnvs(envs))
	}

	return opts, nil
}

// formatElapsed renders a step duration for terminal output.
func formatElapsed(start, finish time.Time) string {
	if finish.IsZero() {
		return "running"
	}
	return finish.Sub(start).Round(time.Millisecond).String()
}
