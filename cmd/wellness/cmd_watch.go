package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/wellness-risk/internal/httpapi"
	"github.com/danielpatrickdp/wellness-risk/internal/rpc"
	"github.com/danielpatrickdp/wellness-risk/internal/widget"
)

var (
	watchAPIURL    string
	watchGRPCAddr  string
	watchUseGRPC   bool
	watchUser      string
	watchInterval  time.Duration
	watchCalculate bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the risk service and print the wellness card on every change",
	RunE:  runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchAPIURL, "api-url", envOr("WELLNESS_API_URL", "http://localhost:8080"), "HTTP risk service base URL")
	f.StringVar(&watchGRPCAddr, "grpc-addr", envOr("WELLNESS_GRPC_ADDR", "localhost:50051"), "gRPC risk service address")
	f.BoolVar(&watchUseGRPC, "grpc", false, "use gRPC instead of HTTP")
	f.StringVar(&watchUser, "user", "demo_ml_user", "user id")
	f.DurationVar(&watchInterval, "interval", widget.DefaultInterval, "polling interval")
	f.BoolVar(&watchCalculate, "calculate", false, "recalculate on every poll instead of reading the latest")
}

type riskClient interface {
	widget.Fetcher
	CalculateRisk(ctx context.Context, userID string) (widget.Snapshot, error)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var rc riskClient
	if watchUseGRPC {
		c, err := rpc.Dial(watchGRPCAddr)
		if err != nil {
			return err
		}
		defer c.Close()
		rc = c
	} else {
		rc = httpapi.NewClient(watchAPIURL, nil)
	}

	var fetcher widget.Fetcher = rc
	if watchCalculate {
		fetcher = widget.FetcherFunc(rc.CalculateRisk)
	}

	out := cmd.OutOrStdout()
	w := widget.New(fetcher, watchUser,
		widget.WithInterval(watchInterval),
		widget.WithLogger(logger),
		widget.WithOnChange(func(s widget.State) { printCard(out, s) }),
	)
	defer w.Teardown()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Initialize(ctx); err != nil {
		logger.Sugar().Warnf("initial fetch: %v", err)
	}
	<-ctx.Done()
	return nil
}

func printCard(w io.Writer, s widget.State) {
	fmt.Fprintf(w, "\n%s", widget.Render(s, time.Now()))
}
