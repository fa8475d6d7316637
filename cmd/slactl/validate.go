package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/slacfg"
)

type validateCheck struct {
	name string
	run  func() error
}

func newValidateCmd() *cobra.Command {
	var summaryPath, overridesPath, configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate contracts, run summaries, overrides and contract config files",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := []validateCheck{
				{name: "embedded contracts", run: schema.CompileContracts},
			}
			if summaryPath != "" {
				checks = append(checks, validateCheck{
					name: "run summary " + summaryPath,
					run:  func() error { return schema.ValidateFile(schema.RunSummaryContract, summaryPath) },
				})
			}
			if overridesPath != "" {
				checks = append(checks, validateCheck{
					name: "run overrides " + overridesPath,
					run: func() error {
						_, err := slacfg.LoadOverrides(overridesPath)
						return err
					},
				})
			}
			if configPath != "" {
				checks = append(checks, validateCheck{
					name: "contract config " + configPath,
					run: func() error {
						_, err := slacfg.Load(configPath)
						return err
					},
				})
			}

			for _, c := range checks {
				if err := c.run(); err != nil {
					return fmt.Errorf("validation failed (%s): %w", c.name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", c.name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&summaryPath, "summary", "", "run summary JSON file to validate")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "run overrides YAML to validate")
	cmd.Flags().StringVar(&configPath, "config", "", "contract config YAML to load")
	return cmd
}
