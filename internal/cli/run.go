package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galileobot/galileo/internal/scheduler"
	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/config"
	"github.com/galileobot/galileo/pkg/logger"
)

// newRunCommand builds `galileo run`: starts the strategy loop against real
// landers, submitting every assembled transaction.
func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "start the strategy loop, submitting through the configured landers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, false)
		},
	}
}

// newDryRunCommand builds `galileo dry-run`: runs the identical loop but
// swaps the lander stack for one that logs instead of submitting.
func newDryRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "run the strategy loop without submitting any transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, true)
		},
	}
}

func runLoop(cmd *cobra.Command, dry bool) error {
	cfg, _, err := config.Resolve(configPath(cmd))
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg.Logging)
	defer log.Sync()

	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, log, signer)
	if err != nil {
		return err
	}
	if dry {
		eng.strategy.SetLander(dryRunLander{log: log})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := eng.blockhash.Run(ctx, blockhashRefreshInterval); err != nil && ctx.Err() == nil {
			log.Error("blockhash subscription stopped", zap.Error(err))
		}
	}()

	sched := scheduler.New()
	if err := sched.Run(ctx, eng.strategy); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// dryRunLander satisfies strategy.Lander by logging what would have been
// submitted instead of racing it through real landers.
type dryRunLander struct {
	log *logger.Logger
}

func (d dryRunLander) Submit(_ context.Context, prepared *types.PreparedTransaction, deadline types.Deadline) (types.LanderReceipt, error) {
	d.log.Info("dry-run: would submit",
		zap.Uint64("slot", prepared.Slot),
		zap.Duration("deadline_remaining", deadline.Remaining()),
	)
	return types.LanderReceipt{Lander: "dry-run", Slot: prepared.Slot, Blockhash: prepared.Blockhash}, nil
}

func loadSigner(cfg *config.Config) (solana.PrivateKey, error) {
	return loadSignerFromPath(cfg.Galileo.Wallet.KeypairPath)
}

// blockhashRefreshInterval paces internal/blockhash.Source's polling loop.
const blockhashRefreshInterval = 400 * time.Millisecond
