package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stringtracker/internal/models"
	"stringtracker/internal/repositories"
	"stringtracker/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sampleGuitars is the starter inventory.
var sampleGuitars = []services.CreateGuitarInput{
	{Model: "Stratocaster", BrandName: "Fender", Type: "Electric", Strings: 6, Condition: models.ConditionNew, Price: 733},
	{Model: "Gio", BrandName: "Ibanez", Type: "Electric", Strings: 6, Condition: models.ConditionUsed, Price: 269},
	{Model: "SG", BrandName: "Gibson", Type: "Electric", Strings: 6, Condition: models.ConditionNew, Price: 1526},
	{Model: "Les Paul '60s", BrandName: "Gibson", Type: "Electric", Strings: 6, Condition: models.ConditionVintage, Price: 2499},
	{Model: "Squier", BrandName: "Fender", Type: "Electric", Strings: 6, Condition: models.ConditionUsed, Price: 115},
	{Model: "GRG170DX", BrandName: "Ibanez", Type: "Electric", Strings: 6, Condition: models.ConditionNew, Price: 287},
}

func newSeedCommand(configFile *string) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the sample guitars to a user's inventory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configFile)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.syncSchema(); err != nil {
				return err
			}

			user, err := a.users.GetByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(email)))
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("no user registered with email %s", email)
			}
			if err != nil {
				return err
			}

			created, skipped, err := seedGuitars(cmd.Context(), services.NewGuitarService(a.guitars), user.ID)
			if err != nil {
				return err
			}
			cmd.Printf("seeded %d guitars (%d already present)\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user who owns the seeded guitars")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// seedGuitars creates the sample guitars for userID, skipping those already owned.
func seedGuitars(ctx context.Context, svc *services.GuitarService, userID string) (created, skipped int, err error) {
	log := zap.S().Named("seed")
	for _, in := range sampleGuitars {
		in.UserID = userID
		g, err := svc.CreateGuitar(ctx, in)
		if errors.Is(err, repositories.ErrDuplicate) {
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("failed to seed %s %s: %w", in.BrandName, in.Model, err)
		}
		log.Infow("seeded guitar", "id", g.ID, "model", g.Model, "brand", g.Brand.Name)
		created++
	}
	return created, skipped, nil
}
