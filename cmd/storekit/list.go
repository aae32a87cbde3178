package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sensiblebit/storekit"
)

var (
	listExpect string
	listMatch  string
)

var listCmd = &cobra.Command{
	Use:   "list <store>",
	Short: "List the objects in a store",
	Long:  "Open a store by URI or @alias and print one line per loaded object.",
	Example: `  storekit list bundle.pem
  storekit list file:/etc/ssl/certs
  storekit list roots:mozilla --expect certificate
  storekit list sqlite:catalog.db`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listExpect, "expect", "", "Only load objects of this kind: name, parameters, key, certificate, crl")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only list objects whose summary contains this substring")
}

func runList(cmd *cobra.Command, args []string) error {
	var filter storekit.FilterFunc
	if listMatch != "" {
		filter = func(info *storekit.Info) *storekit.Info {
			if strings.Contains(info.String(), listMatch) {
				return info
			}
			info.Close()
			return nil
		}
	}

	st, err := openStore(args[0], filter)
	if err != nil {
		return err
	}

	if listExpect != "" {
		kind := storekit.KindFromString(listExpect)
		if kind == 0 {
			_ = st.Close()
			return fmt.Errorf("unknown kind %q", listExpect)
		}
		if err := st.Ctrl(storekit.Expect{Kind: kind}); err != nil {
			_ = st.Close()
			return fmt.Errorf("backend cannot restrict kinds: %w", err)
		}
	}

	count := 0
	for {
		info, err := st.Load()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = st.Close()
			return fmt.Errorf("loading from %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		info.Close()
		count++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d object(s)\n", count)
	return st.Close()
}
