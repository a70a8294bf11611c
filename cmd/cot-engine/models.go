// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/cot-engine/internal/generate"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models installed on the generation backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := newGenerator()
		names, err := client.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No models installed.")
			return nil
		}
		for _, name := range names {
			if generate.SameModel(name, cfg.Backend.Model) {
				fmt.Printf("%s %s\n", name, color.GreenString("(configured)"))
				continue
			}
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
