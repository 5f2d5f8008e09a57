/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/clubroom/apiserver/config"
	"github.com/clubroom/apiserver/internal/logger"
	"github.com/clubroom/apiserver/internal/mq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// activityCmd groups commands that work with published club activity.
var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Inspect club activity notifications",
}

var activityTailCmd = &cobra.Command{
	Use:   "tail <kind>",
	Short: "Log every activity of one kind as it is published",
	Long: `Subscribes to one activity channel and logs each message. Usage:

	clubroom activity tail club.post_published
`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, 0, len(mq.ActivityKinds))
		for _, kind := range mq.ActivityKinds {
			kinds = append(kinds, string(kind))
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := mq.ActivityKind(args[0])
		if !slices.Contains(mq.ActivityKinds, kind) {
			return fmt.Errorf("unknown activity kind %q", kind)
		}

		cfg := config.LoadConfig()
		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log = log.Named("activity")
		queue, err := mq.NewFromConfig(ctx, cfg.MQ, log)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer func() { _ = queue.Close() }()

		log.Info("tailing activity", zap.String("kind", string(kind)))
		return queue.SubscribeActivity(ctx, kind, func(_ context.Context, activity mq.Activity) error {
			log.Info("activity",
				zap.String("kind", string(activity.Kind)),
				zap.Int("club_id", activity.ClubID),
				zap.Int("actor_id", activity.ActorID),
				zap.Int("subject_id", activity.SubjectID),
				zap.Time("occurred_at", activity.OccurredAt),
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.AddCommand(activityTailCmd)
}
