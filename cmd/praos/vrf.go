package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ouroboros-crypto/praos/seed"
	"github.com/ouroboros-crypto/praos/vrf"
)

func vrfVariant(name string) (vrf.VRF, error) {
	switch name {
	case "draft03":
		return vrf.Draft03, nil
	case "draft13":
		return vrf.Draft13, nil
	default:
		return nil, fmt.Errorf("unknown variant %q (draft03 or draft13)", name)
	}
}

func seedFromFlag(seedHex string) (*seed.Seed, error) {
	if seedHex == "" {
		return seed.FromSystemEntropy()
	}
	raw, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decoding seed: %w", err)
	}
	return seed.New(raw)
}

func newVRFCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vrf",
		Short: "Verifiable random function operations",
	}
	cmd.PersistentFlags().String("variant", "draft03", "proof format: draft03 or draft13")
	cmd.AddCommand(newVRFKeygenCommand(), newVRFProveCommand(), newVRFVerifyCommand())
	return cmd
}

func newVRFKeygenCommand() *cobra.Command {
	var seedHex string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a VRF keypair",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vrfVariant(cmd.Flag("variant").Value.String())
			if err != nil {
				return err
			}
			sd, err := seedFromFlag(seedHex)
			if err != nil {
				return err
			}
			defer sd.Free()
			sk, err := v.GenerateKey(sd)
			if err != nil {
				return err
			}
			defer sk.Free()
			fmt.Fprintf(cmd.OutOrStdout(), "seed: %x\n", sd.Bytes())
			fmt.Fprintf(cmd.OutOrStdout(), "verification key: %x\n", sk.VerificationKey())
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed (default: system entropy)")
	return cmd
}

func newVRFProveCommand() *cobra.Command {
	var seedHex, inputHex string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Produce a proof and output for an input",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vrfVariant(cmd.Flag("variant").Value.String())
			if err != nil {
				return err
			}
			sd, err := seedFromFlag(seedHex)
			if err != nil {
				return err
			}
			defer sd.Free()
			alpha, err := hex.DecodeString(inputHex)
			if err != nil {
				return fmt.Errorf("decoding input: %w", err)
			}
			sk, err := v.GenerateKey(sd)
			if err != nil {
				return err
			}
			defer sk.Free()
			proof, output, err := sk.Prove(alpha)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "proof: %x\n", proof)
			fmt.Fprintf(cmd.OutOrStdout(), "output: %x\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "32-byte hex seed")
	cmd.Flags().StringVar(&inputHex, "input", "", "hex-encoded input")
	cmd.MarkFlagRequired("seed")
	return cmd
}

func newVRFVerifyCommand() *cobra.Command {
	var vkHex, inputHex, proofHex string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof and print the output it commits to",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vrfVariant(cmd.Flag("variant").Value.String())
			if err != nil {
				return err
			}
			vk, err := hex.DecodeString(vkHex)
			if err != nil {
				return fmt.Errorf("decoding verification key: %w", err)
			}
			alpha, err := hex.DecodeString(inputHex)
			if err != nil {
				return fmt.Errorf("decoding input: %w", err)
			}
			proof, err := hex.DecodeString(proofHex)
			if err != nil {
				return fmt.Errorf("decoding proof: %w", err)
			}
			output, err := v.Verify(vk, alpha, proof)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "output: %x\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&vkHex, "vk", "", "hex-encoded verification key")
	cmd.Flags().StringVar(&inputHex, "input", "", "hex-encoded input")
	cmd.Flags().StringVar(&proofHex, "proof", "", "hex-encoded proof")
	cmd.MarkFlagRequired("vk")
	cmd.MarkFlagRequired("proof")
	return cmd
}
