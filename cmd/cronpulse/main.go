package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "cronpulse",
	Short:         "cronpulse - cron expressions with time zone aware triggering",
	Long:          "cronpulse parses 5 and 6 field cron expressions (with L, W and # modifiers), previews their occurrences across DST changes and runs a trigger daemon that reports every fire.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newNextCmd(), newCheckCmd(), newRunCmd(), newHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
