package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/eKV/cmd/kv"
	"github.com/ValentinKolb/eKV/cmd/serve"
	"github.com/ValentinKolb/eKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ekv",
		Short: "in-memory key-value server",
		Long: fmt.Sprintf(`eKV (v%s)

A single-threaded, event-driven in-memory key-value server written in Go,
with a binary length-prefixed protocol, incremental rehashing and
per-key expiration.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of eKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("eKV v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
