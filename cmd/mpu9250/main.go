package main

import (
	"os"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "mpu9250",
	Short: "read and inspect an MPU-9250 9DoF sensor",
	Long:  "read and inspect an MPU-9250 9DoF sensor over I2C or SPI",
}

var ReadCmd = &cobra.Command{
	Use:   "read",
	Short: "read initializes the sensor and prints samples",
	Long: `read initializes the sensor and reads samples, either on the data ready
interrupt (--pin) or by polling the status register.
Samples can be logged, exported as Prometheus metrics (--metrics) and streamed
to websocket clients as JSON (--stream).
Flags override values from the configuration file.
`,
	Example: `  mpu9250 read --config mpu9250.yaml
  mpu9250 read --transport spi --channel 0 --pin 17
  mpu9250 read --srd 9 --metrics :9100 --stream :8080`,
	RunE: ReadCmdRunE,
}

var DumpCmd = &cobra.Command{
	Use:     "dump",
	Short:   "dump prints the diagnostic registers",
	Example: `  mpu9250 dump --begin`,
	RunE:    DumpCmdRunE,
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", DefaultConfig, "output path")
}

var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "init creates a configuration template",
	Example: `  mpu9250 init --print
  mpu9250 init -o /etc/mpu9250.yaml -y`,
	RunE: InitCfg,
}

func getRootCmd() *cobra.Command {
	ReadCmdFlags(ReadCmd)
	RootCmd.AddCommand(ReadCmd)

	DumpCmdFlags(DumpCmd)
	RootCmd.AddCommand(DumpCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	return RootCmd
}

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
