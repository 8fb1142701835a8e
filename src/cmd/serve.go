package cmd

import (
	"github.com/ducnmm/datacert/src/register"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registration and trust scoring API",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := register.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-applicationCtx.Done()

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("serve-cmd")
		log.Debug("Finished serve command")
		return
	},
}
