package main

import (
	"fmt"
	"os"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"

	"github.com/hnrobert/sysusers/internal/sysusers"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "sysusers [flags] [config-file...]",
	Short: "Creates system user and group accounts",
	Long: `sysusers creates system users and groups from declarative configuration,
allocating stable numeric IDs and updating the account databases atomically.
Existing entries are never modified or removed, and no passwords are set.

With no configuration files on the command line, the installed *.conf files
under the sysusers.d directories are applied.`,
	Version:      version,
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("root") == "" && os.Geteuid() != 0 {
			return fmt.Errorf("updating the live account databases requires root privileges")
		}
		return nil
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().String("root", "", "Operate on an alternate filesystem root")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	_ = viper.BindPFlag("root", rootCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
}

func run(cmd *cobra.Command, args []string) error {
	logCfg := logger.Config{}
	if viper.GetBool("verbose") {
		logCfg.Levels = logger.AllLevels()
	}
	logger.Init(logCfg)
	unix.Umask(0022)

	s := sysusers.NewSession(viper.GetString("root"))

	// Configuration errors are accumulated: every readable line is still
	// applied, but the run exits non-zero if any line was bad.
	confErr := s.ReadConfig(args)

	if err := s.Run(); err != nil {
		return err
	}
	return confErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
