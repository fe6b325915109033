package kv

import (
	"fmt"
	"github.com/spf13/cobra"
	"math/rand"
	"strconv"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (both between 1 and 65535)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseUint16("key", args[0])
			if err != nil {
				return err
			}
			value, err := parseUint16("value", args[1])
			if err != nil {
				return err
			}
			return write(key, value)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseUint16("key", args[0])
			if err != nil {
				return err
			}
			res, err := kvClient.Read(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%d, found=%v, value=%d (node %d)\n", key, res.Found, res.Value, res.Node)
			return nil
		},
	}
	randCmd = &cobra.Command{
		Use:   "rand",
		Short: "Writes a random value to a random key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := uint16(1 + rand.Intn(65535))
			value := uint16(1 + rand.Intn(65529))
			return write(key, value)
		},
	}
)

// write sends a write and prints the outcome
func write(key, value uint16) error {
	res, err := kvClient.Write(key, value)
	if err != nil {
		return err
	}
	if res.Committed {
		fmt.Printf("key=%d, value=%d written (node %d)\n", key, value, res.Node)
	} else {
		fmt.Printf("key=%d, value=%d rejected by node %d\n", key, value, res.Node)
	}
	return nil
}

// parseUint16 parses a key or value, 0 is reserved
func parseUint16(name, s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%s must be a number between 1 and 65535", name)
	}
	return uint16(v), nil
}
