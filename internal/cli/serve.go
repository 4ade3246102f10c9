package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"stringtracker/internal/config"
	"stringtracker/internal/models"
	"stringtracker/internal/server"
	"stringtracker/internal/services"
	"stringtracker/internal/storage/minio"
	"stringtracker/pkg/rabbitmq"

	"github.com/spf13/cobra"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configFile *string) *cobra.Command {
	var consumeEvents bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, consumeEvents)
		},
	}
	cmd.Flags().BoolVar(&consumeEvents, "consume-events", false, "log guitar events read back from RabbitMQ")
	return cmd
}

func serve(ctx context.Context, a *app, consumeEvents bool) error {
	log := zap.S().Named("serve")
	cfg := a.cfg

	if err := a.syncSchema(); err != nil {
		return err
	}

	var guitarOpts []services.GuitarOption

	if cfg.EventsEnabled() {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			return err
		}
		a.onClose(func() {
			if err := mq.Close(); err != nil {
				log.Warnw("failed to close RabbitMQ client", "error", err)
			}
		})
		guitarOpts = append(guitarOpts, services.WithEvents(mq))

		if consumeEvents {
			if err := mq.ConsumeGuitarEvents(logGuitarEvent); err != nil {
				return err
			}
			log.Infow("consuming guitar events", "queue", rabbitmq.Queue)
		}
	}

	var images *services.ImageService
	if cfg.StorageEnabled() {
		store, err := minio.New(ctx, minio.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return err
		}
		images = services.NewImageService(store, a.guitars, cfg.Storage.MaxImageBytes)
		guitarOpts = append(guitarOpts, services.WithImageCleaner(images))
	} else {
		log.Info("object storage not configured, image uploads are disabled")
	}

	httpApp := server.New(server.Options{
		Auth:          services.NewAuthService(a.users, cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Guitars:       services.NewGuitarService(a.guitars, guitarOpts...),
		Brands:        services.NewBrandService(a.brands),
		Images:        images,
		BodyLimit:     bodyLimit(cfg),
		LoginAttempts: cfg.Auth.LoginAttempts,
		AccessLog:     true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infow("starting server", "address", cfg.Port, "env", cfg.Env, "driver", cfg.Database.Driver)
		errCh <- httpApp.Listen(cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := httpApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
	log.Info("server gracefully stopped")
	return nil
}

// bodyLimit leaves room for multipart framing around the largest image.
func bodyLimit(cfg *config.Config) int {
	const minLimit = 4 << 20
	limit := int(cfg.Storage.MaxImageBytes) + 1<<20
	if limit < minLimit {
		return minLimit
	}
	return limit
}

func logGuitarEvent(msg amqp.Delivery) error {
	var event models.GuitarEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed guitar event: %w", err)
	}
	zap.S().Named("events").Infow("guitar event",
		"event", event.Event,
		"guitar_id", event.GuitarID,
		"user_id", event.UserID,
		"model", event.Model,
		"brand", event.Brand,
		"price", event.Price,
		"occurred_at", event.OccurredAt,
	)
	return nil
}
