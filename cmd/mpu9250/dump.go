package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func DumpCmdFlags(cmd *cobra.Command) {
	deviceFlags(cmd)
	cmd.Flags().Bool("begin", false, "run the bring-up sequence before dumping")
}

func DumpCmdRunE(cmd *cobra.Command, args []string) error {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return err
	}
	log := GetLogger(cfg.LogLevel)
	mpu, closeBus, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer closeBus()

	if b, _ := cmd.Flags().GetBool("begin"); b {
		fmt.Println("[INIT] running bring-up")
		if err := mpu.Begin(); err != nil {
			fmt.Printf("[INIT] failed: %v\n", err)
		}
	}

	dump, err := mpu.DumpRegisters()
	if err != nil {
		return err
	}
	fmt.Println("[DUMP] MPU9250 registers:")
	fmt.Print(dump)
	if mpu.Ready() {
		sens := mpu.MagSensitivity()
		fmt.Printf("[DUMP] AK8963 sensitivity adjustment: X=%.4f Y=%.4f Z=%.4f\n", sens[0], sens[1], sens[2])
	}
	return nil
}
