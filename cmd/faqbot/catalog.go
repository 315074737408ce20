package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"faq-assistant/internal/app"
	"faq-assistant/internal/domain"
	"faq-assistant/internal/knowledge"
	"faq-assistant/internal/repository"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and publish FAQ catalogs",
	}
	cmd.AddCommand(newCatalogValidateCmd(), newCatalogPushCmd(opts))
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a catalog file (or the built-in catalog) for consistency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := readCatalog(file)
			if err != nil {
				return err
			}
			base, err := knowledge.New(c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %d keyword rules\n",
				displayName(base.Name), base.Store.Len(), len(base.Keywords.Rules()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: built-in catalog)")
	return cmd
}

func newCatalogPushCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Write a catalog to the DynamoDB table named by FAQ_TABLE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.CatalogTable == "" {
				return errors.New("FAQ_TABLE is not set")
			}
			c, err := readCatalog(file)
			if err != nil {
				return err
			}
			// Refuse to publish something the service would reject at startup.
			if _, err := knowledge.New(c); err != nil {
				return err
			}

			awsCfg, err := app.DefaultAWSLoader(cmd.Context())
			if err != nil {
				return fmt.Errorf("load AWS config: %w", err)
			}
			repo, err := repository.New(dynamodb.NewFromConfig(awsCfg), cfg.CatalogTable)
			if err != nil {
				return err
			}
			if err := repo.PutCatalog(cmd.Context(), cfg.CatalogID, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed catalog %q to %s (%d entries, %d keyword rules)\n",
				cfg.CatalogID, cfg.CatalogTable, len(c.Entries), len(c.Keywords))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (default: built-in catalog)")
	return cmd
}

func readCatalog(file string) (domain.Catalog, error) {
	if file == "" {
		return knowledge.DefaultCatalog()
	}
	f, err := os.Open(file)
	if err != nil {
		return domain.Catalog{}, err
	}
	defer f.Close()
	return knowledge.ParseCatalog(f)
}
