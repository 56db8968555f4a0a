package kv

import (
	"github.com/ValentinKolb/eKV/cmd/util"
	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/client"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/spf13/cobra"
)

var (
	rpcStore     store.IStore
	rpcTransport transport.IRPCClientTransport

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(expireCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(*util.GetClientConfig(), t)
	if err != nil {
		return err
	}
	rpcTransport = t
	return nil
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcTransport != nil {
		return rpcTransport.Close()
	}
	return nil
}
