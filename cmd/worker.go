/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"

	"github.com/kodbank/apiserver/internal/events"
	"github.com/kodbank/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// workerCmd consumes the domain event stream.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume Kodbank domain events and log them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadRuntime()

		queue, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		logger.Info().Str("channel", cfg.MQ.Channel).Msg("consuming events")
		err = events.Consume(cmd.Context(), queue, cfg.MQ.Channel, logger, func(ctx context.Context, evt events.Event) error {
			logger.Info().
				Str("type", evt.Type).
				Int("user_id", evt.UserID).
				Time("occurred_at", evt.OccurredAt).
				Interface("data", evt.Data).
				Msg("event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
