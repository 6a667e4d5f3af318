package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Load the config file, apply environment overrides and schema defaults,
and print the result with credentials redacted.

Environment overrides:
  DX_SERVER         server base URL
  DX_CLIENT_SECRET  OAuth2 client secret
  DX_PASSWORD       user password

Examples:
  dxexplorer config
  dxexplorer config --config staging.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return f.Fail(err, nil)
			}
			redacted := cfg.Redacted()
			if f.IsJSON() {
				return f.Success(redacted)
			}
			enc := yaml.NewEncoder(f.Writer)
			enc.SetIndent(2)
			if err := enc.Encode(redacted); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
