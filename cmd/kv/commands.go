package kv

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			resp, ok, err := rpcStore.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			deleted, err := rpcStore.Delete(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, deleted=%t\n", key, deleted)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := rpcStore.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			fmt.Printf("(%d keys)\n", len(keys))
			return nil
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key] [ttl-ms]",
		Short: "Sets the time to live of a key in milliseconds, a negative ttl removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ttl, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("ttl must be a number: %w", err)
			}
			resp, ok, err := rpcStore.Expire(key, ttl)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			return nil
		},
	}
)
