package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accessbridge/accessbridge/pkg/config"
)

func newCheckConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and signature list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			sig, err := config.LoadSignatures(cfg.Recovery.SignaturesPath)
			if err != nil {
				return err
			}

			fmt.Printf("config ok (host command: %v)\n", cfg.Host.Command)
			fmt.Printf("signatures ok (version %d, %d codes, %d substrings)\n",
				sig.Version, len(sig.Codes), len(sig.Substrings))
			return nil
		},
	}
}
