package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/wellness-risk/internal/seed"
)

var (
	seedUser   string
	seedDays   int
	seedRandom int64
	seedVerify bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo user with mood history, chats, features and an assessment",
	RunE:  runSeed,
}

func init() {
	def := seed.DefaultConfig()
	f := seedCmd.Flags()
	f.StringVar(&seedUser, "user", def.User.UserID, "user id to seed")
	f.IntVar(&seedDays, "days", def.Days, "days of mood history")
	f.Int64Var(&seedRandom, "seed", def.Seed, "random seed for mood jitter")
	f.BoolVar(&seedVerify, "verify", false, "read the user back after seeding")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	cls, err := loadClassifier()
	if err != nil {
		return err
	}

	cfg := seed.DefaultConfig()
	cfg.User.UserID = seedUser
	cfg.Days = seedDays
	cfg.Seed = seedRandom

	sum, err := seed.New(st, cls, logger).Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded %s: %d records (%d moods, %d chats, %d features)\n",
		sum.UserID, sum.Records, sum.Moods, sum.Chats, sum.Features)
	fmt.Fprintf(out, "Risk: %s (%.0f%%), %d factors\n", sum.Level, sum.Score*100, sum.Factors)
	if sum.InterventionID != "" {
		fmt.Fprintf(out, "Intervention logged: %s\n", sum.InterventionID)
	}

	if seedVerify {
		chk, err := seed.Verify(cmd.Context(), st, sum.UserID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Verified %s: %d moods, %d chats, %d features, level %s, intervention=%v\n",
			chk.Name, chk.Moods, chk.Chats, chk.Features, chk.Level, chk.Triggered)
	}
	return nil
}
