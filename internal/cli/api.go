package cli

import (
	"github.com/spf13/cobra"
)

func newAPICmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Show or change the model provider connection",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the provider configuration (key masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				c, err := e.repo.APIConfig()
				if err != nil {
					return err
				}
				renderAPIConfig(cmd.OutOrStdout(), c)
				return nil
			})
		},
	})

	var (
		baseURL     string
		apiKey      string
		model       string
		maxTokens   int
		temperature float64
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the provider configuration and mark it configured",
		Long: `Update the provider configuration. Flags that are not given keep their
stored value. Any OpenAI-compatible chat completions endpoint works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, g, func(e *env) error {
				c, err := e.repo.APIConfig()
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.Changed("base-url") {
					c.BaseURL = baseURL
				}
				if flags.Changed("api-key") {
					c.APIKey = apiKey
				}
				if flags.Changed("model") {
					c.Model = model
				}
				if flags.Changed("max-tokens") {
					c.MaxTokens = maxTokens
				}
				if flags.Changed("temperature") {
					c.Temperature = temperature
				}
				c.Configured = true
				if err := e.ctl.SaveAPIConfig(*c); err != nil {
					return err
				}
				reportState(cmd.OutOrStdout(), e.ctl.State())
				return nil
			})
		},
	}
	set.Flags().StringVar(&baseURL, "base-url", "", "API base URL, e.g. https://api.openai.com/v1/")
	set.Flags().StringVar(&apiKey, "api-key", "", "API key")
	set.Flags().StringVar(&model, "model", "", "model name")
	set.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token limit")
	set.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.AddCommand(set)

	return cmd
}
