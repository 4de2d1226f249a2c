package cli

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/galileobot/galileo/internal/lander"
	"github.com/galileobot/galileo/internal/types"
	"github.com/galileobot/galileo/pkg/config"
	"github.com/galileobot/galileo/pkg/logger"
)

// instructionFile is the JSON shape `lander send --instructions` reads: a
// pre-computed list of raw instructions (no assembly decorators applied).
type instructionFile struct {
	Instructions []rawInstruction `json:"instructions"`
}

type rawInstruction struct {
	Program  string       `json:"program"`
	Accounts []rawAccount `json:"accounts"`
	Data     string       `json:"data"` // base64
}

type rawAccount struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

func newLanderCommand() *cobra.Command {
	landerCmd := &cobra.Command{
		Use:   "lander",
		Short: "one-shot lander operations",
	}
	landerCmd.AddCommand(newLanderSendCommand())
	return landerCmd
}

func newLanderSendCommand() *cobra.Command {
	var instructionsPath string
	var landerNames string
	var deadlineMs int
	var tipLamports uint64
	var computeUnitLimit uint32

	cmd := &cobra.Command{
		Use:   "send",
		Short: "assemble and submit a pre-computed swap-instruction file through one or more landers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if instructionsPath == "" {
				return Usagef("--instructions is required")
			}

			cfg, _, err := config.Resolve(configPath(cmd))
			if err != nil {
				return err
			}
			log := logger.New("lander-send")
			defer log.Sync()

			signer, err := loadSigner(cfg)
			if err != nil {
				return err
			}

			instructions, err := loadInstructions(instructionsPath)
			if err != nil {
				return err
			}

			rpcClient := rpc.New(cfg.Galileo.Solana.RPCURL)
			latest, err := rpcClient.GetLatestBlockhash(cmd.Context(), rpc.CommitmentConfirmed)
			if err != nil {
				return fmt.Errorf("cli: fetching latest blockhash: %w", err)
			}

			all := append([]solana.Instruction{setComputeUnitLimitInstruction(computeUnitLimit)}, instructions...)
			if tipLamports > 0 {
				all = append(all, system.NewTransferInstruction(tipLamports, signer.PublicKey(), signer.PublicKey()).Build())
			}

			tx, err := solana.NewTransaction(all, latest.Value.Blockhash, solana.TransactionPayer(signer.PublicKey()))
			if err != nil {
				return fmt.Errorf("cli: building transaction: %w", err)
			}
			if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
				if key.Equals(signer.PublicKey()) {
					return &signer
				}
				return nil
			}); err != nil {
				return fmt.Errorf("cli: signing transaction: %w", err)
			}

			prepared := &types.PreparedTransaction{
				Transaction: tx,
				Slot:        latest.Context.Slot,
				Blockhash:   latest.Value.Blockhash,
			}
			deadline := types.NewDeadline(time.Duration(deadlineMs) * time.Millisecond)

			stack, err := buildLandersFromNames(cfg, rpcClient, landerNames)
			if err != nil {
				return err
			}

			receipt, err := stack.Submit(cmd.Context(), prepared, deadline)
			if err != nil {
				return fmt.Errorf("cli: submission failed: %w", err)
			}

			log.Info("landed", zap.String("lander", receipt.Lander), zap.Uint64("slot", receipt.Slot))
			fmt.Printf("landed via %s at slot %d\n", receipt.Lander, receipt.Slot)
			return nil
		},
	}

	cmd.Flags().StringVar(&instructionsPath, "instructions", "", "path to a JSON instruction file")
	cmd.Flags().StringVar(&landerNames, "landers", "rpc", "comma-separated lander names to race (rpc,jito,staked_relay)")
	cmd.Flags().IntVar(&deadlineMs, "deadline-ms", 1000, "submission deadline in milliseconds")
	cmd.Flags().Uint64Var(&tipLamports, "tip-lamports", 0, "optional tip transfer amount in lamports")
	cmd.Flags().Uint32Var(&computeUnitLimit, "compute-unit-limit", 200_000, "compute unit limit to request")
	return cmd
}

func loadInstructions(path string) ([]solana.Instruction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cli: reading instructions file %s: %w", path, err)
	}
	var file instructionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("cli: parsing instructions file %s: %w", path, err)
	}

	out := make([]solana.Instruction, 0, len(file.Instructions))
	for i, raw := range file.Instructions {
		program, err := solana.PublicKeyFromBase58(raw.Program)
		if err != nil {
			return nil, fmt.Errorf("cli: instruction %d: invalid program %q: %w", i, raw.Program, err)
		}
		metas := make(solana.AccountMetaSlice, 0, len(raw.Accounts))
		for j, acc := range raw.Accounts {
			pubkey, err := solana.PublicKeyFromBase58(acc.Pubkey)
			if err != nil {
				return nil, fmt.Errorf("cli: instruction %d account %d: invalid pubkey %q: %w", i, j, acc.Pubkey, err)
			}
			metas = append(metas, solana.NewAccountMeta(pubkey, acc.Writable, acc.Signer))
		}
		dataBytes, err := base64.StdEncoding.DecodeString(raw.Data)
		if err != nil {
			return nil, fmt.Errorf("cli: instruction %d: invalid base64 data: %w", i, err)
		}
		out = append(out, solana.NewInstruction(program, metas, dataBytes))
	}
	return out, nil
}

func buildLandersFromNames(cfg *config.Config, rpcClient *rpc.Client, names string) (*lander.Stack, error) {
	byName := make(map[string]config.LanderConfig, len(cfg.Galileo.Landers))
	for _, lc := range cfg.Galileo.Landers {
		byName[lc.Name] = lc
	}

	var landers []lander.Lander
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		lc, ok := byName[name]
		if !ok {
			return nil, Usagef("lander %q is not configured", name)
		}
		switch name {
		case "rpc":
			landers = append(landers, lander.NewRPCLander(rpcClient, lc.Endpoint))
		case "jito":
			landers = append(landers, lander.NewJitoLander(lc.Endpoint, lc.AuthToken))
		case "staked_relay":
			landers = append(landers, lander.NewStakedRelayLander(lc.Endpoint, lc.AuthToken))
		default:
			return nil, Usagef("unknown lander %q", name)
		}
	}
	if len(landers) == 0 {
		return nil, Usagef("--landers named no configured lander")
	}
	return lander.NewStack(landers...), nil
}

var computeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

func setComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(computeBudgetProgramID, solana.AccountMetaSlice{}, data)
}
