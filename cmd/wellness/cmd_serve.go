package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/wellness-risk/internal/assessor"
	"github.com/danielpatrickdp/wellness-risk/internal/classifier"
	"github.com/danielpatrickdp/wellness-risk/internal/features"
	"github.com/danielpatrickdp/wellness-risk/internal/httpapi"
	"github.com/danielpatrickdp/wellness-risk/internal/notify"
	"github.com/danielpatrickdp/wellness-risk/internal/rpc"
	"github.com/danielpatrickdp/wellness-risk/internal/store"
)

var (
	httpAddr      string
	grpcAddr      string
	purgeInterval time.Duration
	mqttBroker    string
	mqttTopic     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the risk API over HTTP and gRPC",
	Long: `Starts the HTTP (GET /risk-score, POST /calculate-risk) and gRPC
(wellness.RiskService) front ends over one assessment service. The classifier
config file, when given, is watched and hot-reloaded. Expired intervention log
rows are purged periodically. With --mqtt-broker, escalated interventions
are also published to <topic>/<userId>.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&httpAddr, "http-addr", envOr("WELLNESS_HTTP_ADDR", ":8080"), "HTTP listen address")
	f.StringVar(&grpcAddr, "grpc-addr", envOr("WELLNESS_GRPC_ADDR", ":50051"), "gRPC listen address (empty disables)")
	f.DurationVar(&purgeInterval, "purge-interval", time.Hour, "interval between expired-intervention purges")
	f.StringVar(&mqttBroker, "mqtt-broker", envOr("WELLNESS_MQTT_BROKER", ""), "MQTT broker for intervention events (empty disables)")
	f.StringVar(&mqttTopic, "mqtt-topic", envOr("WELLNESS_MQTT_TOPIC", notify.DefaultMQTTConfig().TopicPrefix), "MQTT topic prefix")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	reloader, err := classifier.NewReloader(classifierConfig, logger.Named("classifier"))
	if err != nil {
		return err
	}
	assembler := features.NewAssembler(logger,
		features.NewStoredProducer(st),
		features.NewMoodProducer(st, features.DefaultMoodConfig()),
		features.NewBehavioralProducer(st, features.DefaultBehavioralConfig()),
	)
	var opts []assessor.Option
	if mqttBroker != "" {
		cfg := notify.DefaultMQTTConfig()
		cfg.Broker, cfg.TopicPrefix = mqttBroker, mqttTopic
		n, err := notify.DialMQTT(cfg, logger)
		if err != nil {
			return err
		}
		defer n.Close()
		opts = append(opts, assessor.WithNotifier(n))
	}
	svc := assessor.New(assembler, reloader, st, logger, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpapi.NewServer(svc, logger).ListenAndServe(ctx, httpAddr) })
	if grpcAddr != "" {
		g.Go(func() error { return rpc.NewServer(svc, logger).Serve(ctx, grpcAddr) })
	}
	g.Go(func() error { return reloader.Watch(ctx) })
	g.Go(func() error { return purgeLoop(ctx, st, logger) })

	logger.Info("wellness service started",
		zap.String("db", dbPath),
		zap.String("http", httpAddr),
		zap.String("grpc", grpcAddr),
		zap.String("mqtt", mqttBroker),
	)
	return g.Wait()
}

func purgeLoop(ctx context.Context, st *store.Store, logger *zap.Logger) error {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := st.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired interventions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired interventions", zap.Int64("rows", n))
			}
		}
	}
}
