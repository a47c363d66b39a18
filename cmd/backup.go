package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tempsentry/tempsentry/internal/pkg/clients"
	"github.com/tempsentry/tempsentry/internal/pkg/profile"
)

// backupCmd runs one profile snapshot to S3 and exits.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot all alarm profiles to S3",
	Long:  `Snapshot all alarm profiles to S3`,
	Run: func(cmd *cobra.Command, args []string) {
		l, _ := zap.NewProduction()
		logger = l.Sugar().Named("tempsentry_backup")
		defer logger.Sync()

		serverConfig := buildServerConfig()

		serverClients, err := createClients(serverConfig)
		if err != nil {
			logger.Fatalf("Error creating clients: %s", err)
		}

		runProfileSnapshot(serverClients, serverConfig)
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

// collectAllProfiles walks every configured coalition, its groups, and each
// group's profile pages, then fetches full details per profile.
func collectAllProfiles(ctx context.Context, serverClients clients.ServerClients) ([]profile.ServerProfile, error) {
	var all []profile.ServerProfile

	coalitions, err := serverClients.SensorAPI.ListCoalitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing coalitions: %w", err)
	}

	for _, coalition := range coalitions {
		groups, err := serverClients.SensorAPI.ListGroups(ctx, coalition.ID)
		if err != nil {
			return nil, fmt.Errorf("listing groups for coalition %s: %w", coalition.ID, err)
		}

		for _, group := range groups {
			page := 1
			for {
				summaries, numPages, err := serverClients.SensorAPI.ListProfiles(ctx, group.ID, page)
				if err != nil {
					return nil, fmt.Errorf("listing profiles for group %s: %w", group.ID, err)
				}

				for _, summary := range summaries {
					sp, err := serverClients.SensorAPI.ProfileDetails(ctx, fmt.Sprintf("%d", summary.ID))
					if err != nil {
						return nil, fmt.Errorf("getting details for profile %d: %w", summary.ID, err)
					}
					all = append(all, sp)
				}

				if page >= numPages {
					break
				}
				page++
			}
		}
	}

	return all, nil
}
