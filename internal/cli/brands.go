package cli

import (
	"stringtracker/internal/services"

	"github.com/spf13/cobra"
)

func newBrandsCommand(configFile *string) *cobra.Command {
	brands := &cobra.Command{
		Use:   "brands",
		Short: "Brand maintenance",
	}
	brands.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete brands no guitar references",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.syncSchema(); err != nil {
				return err
			}

			n, err := services.NewBrandService(a.brands).PruneOrphans(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("pruned %d brands\n", n)
			return nil
		},
	})
	return brands
}
