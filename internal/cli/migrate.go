package cli

import (
	"errors"

	"stringtracker/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.db == nil {
				return errors.New("the memory driver has no schema to migrate")
			}
			if err := database.Migrate(a.db); err != nil {
				return err
			}
			zap.S().Named("cli").Infow("database is up to date", "driver", a.cfg.Database.Driver)
			cmd.Println("migrations applied")
			return nil
		},
	}
}
