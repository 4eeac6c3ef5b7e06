package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/coach/pkg/coach"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display Coach version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(coach.FullVersionInfo())
	},
}
