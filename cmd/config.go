package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configShowCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Prints the merged configuration (defaults, config file, environment) as YAML. The API key is redacted.",
	RunE: func(_ *cobra.Command, _ []string) error {
		redacted := *cfg
		if redacted.Anthropic.Key != "" {
			redacted.Anthropic.Key = "********"
		}

		out, err := yaml.Marshal(redacted)
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		fmt.Fprint(os.Stdout, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configShowCmd)
}
