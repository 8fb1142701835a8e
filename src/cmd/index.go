package cmd

import (
	"github.com/ducnmm/datacert/src/index"
	"github.com/ducnmm/datacert/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Poll ledger events and reconcile them into the database",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := index.NewController(conf)
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
		log := logger.NewSublogger("index-cmd")
		log.Debug("Finished index command")
		return
	},
}
