package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/pictag/pkg/library"
	"github.com/kamal-hamza/pictag/pkg/ui"
)

var configPathOnly bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the pictag configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := library.New()
		if err != nil {
			return err
		}
		path := l.ConfigPath

		if configPathOnly {
			fmt.Println(path)
			return nil
		}

		// Ensure it exists
		if !fileExists(path) {
			if err := createDefaultConfig(path); err != nil {
				return err
			}
			fmt.Println(ui.FormatSuccess("Default config created"))
		}

		fmt.Println(ui.FormatInfo("Opening config: " + path))
		return OpenInEditor(path)
	},
}

func init() {
	configCmd.Flags().BoolVar(&configPathOnly, "path", false, "Print the config file path and exit")
}
