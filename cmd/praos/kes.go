package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-crypto/praos/kes"
)

func kesScheme(cmd *cobra.Command) (kes.Scheme, error) {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return nil, err
	}
	if compact {
		return kes.CompactSum(depth, kes.Blake2b256)
	}
	return kes.Sum(depth, kes.Blake2b256)
}

// evolveTo advances a fresh key to the target period.
func evolveTo(sk kes.SigningKey, period uint64) error {
	for sk.Period() < period {
		if err := sk.Update(); err != nil {
			return fmt.Errorf("evolving to period %d: %w", period, err)
		}
	}
	return nil
}

func newKESCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kes",
		Short: "Key-evolving signature operations",
	}
	cmd.PersistentFlags().Int("depth", 6, "tree depth; the key covers 2^depth periods")
	cmd.PersistentFlags().Bool("compact", false, "use the compact signature format")
	cmd.AddCommand(newKESKeygenCommand(), newKESSignCommand(), newKESVerifyCommand(), newKESEvolveCommand())
	return cmd
}

func newKESKeygenCommand() *cobra.Command {
	var seedHex string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a KES keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := kesScheme(cmd)
			if err != nil {
				return err
			}
			sd, err := seedFromFlag(seedHex)
			if err != nil {
				return err
			}
			defer sd.Free()
			sk, err := scheme.GenerateKey(sd)
			if err != nil {
				return err
			}
			defer sk.Free()
			fmt.Fprintf(cmd.OutOrStdout(), "scheme: %s\n", scheme.Name())
			fmt.Fprintf(cmd.OutOrStdout(), "periods: %d\n", scheme.TotalPeriods())
			fmt.Fprintf(cmd.OutOrStdout(), "seed: %x\n", sd.Bytes())
			fmt.Fprintf(cmd.OutOrStdout(), "verification key: %x\n", sk.VerificationKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed (default: system entropy)")
	return cmd
}

func newKESSignCommand() *cobra.Command {
	var seedHex, messageHex string
	var period uint64
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a message at a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := kesScheme(cmd)
			if err != nil {
				return err
			}
			sd, err := seedFromFlag(seedHex)
			if err != nil {
				return err
			}
			defer sd.Free()
			msg, err := hex.DecodeString(messageHex)
			if err != nil {
				return fmt.Errorf("decoding message: %w", err)
			}
			sk, err := scheme.GenerateKey(sd)
			if err != nil {
				return err
			}
			defer sk.Free()
			if err := evolveTo(sk, period); err != nil {
				return err
			}
			sig, err := sk.Sign(period, msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "period: %d\n", period)
			fmt.Fprintf(cmd.OutOrStdout(), "signature: %x\n", sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed")
	cmd.Flags().StringVar(&messageHex, "message", "", "hex-encoded message")
	cmd.Flags().Uint64Var(&period, "period", 0, "period to sign at")
	cmd.MarkFlagRequired("seed")
	return cmd
}

func newKESVerifyCommand() *cobra.Command {
	var vkHex, messageHex, sigHex string
	var period uint64
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := kesScheme(cmd)
			if err != nil {
				return err
			}
			vk, err := hex.DecodeString(vkHex)
			if err != nil {
				return fmt.Errorf("decoding verification key: %w", err)
			}
			msg, err := hex.DecodeString(messageHex)
			if err != nil {
				return fmt.Errorf("decoding message: %w", err)
			}
			sig, err := hex.DecodeString(sigHex)
			if err != nil {
				return fmt.Errorf("decoding signature: %w", err)
			}
			if err := scheme.Verify(vk, period, msg, sig); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&vkHex, "vk", "", "hex-encoded verification key")
	cmd.Flags().StringVar(&messageHex, "message", "", "hex-encoded message")
	cmd.Flags().StringVar(&sigHex, "signature", "", "hex-encoded signature")
	cmd.Flags().Uint64Var(&period, "period", 0, "period the signature was made at")
	cmd.MarkFlagRequired("vk")
	cmd.MarkFlagRequired("signature")
	return cmd
}

func newKESEvolveCommand() *cobra.Command {
	var seedHex string
	var period uint64
	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve a key to a period and report its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheme, err := kesScheme(cmd)
			if err != nil {
				return err
			}
			sd, err := seedFromFlag(seedHex)
			if err != nil {
				return err
			}
			defer sd.Free()
			sk, err := scheme.GenerateKey(sd)
			if err != nil {
				return err
			}
			defer sk.Free()
			if err := evolveTo(sk, period); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scheme: %s\n", scheme.Name())
			fmt.Fprintf(cmd.OutOrStdout(), "period: %d of %d\n", sk.Period(), scheme.TotalPeriods())
			fmt.Fprintf(cmd.OutOrStdout(), "verification key: %x\n", sk.VerificationKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed")
	cmd.Flags().Uint64Var(&period, "period", 0, "target period")
	cmd.MarkFlagRequired("seed")
	return cmd
}
