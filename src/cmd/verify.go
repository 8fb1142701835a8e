package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/integrity"
	"github.com/ducnmm/datacert/src/utils/model"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func init() {
	RootCmd.AddCommand(verifyCmd)
}

// One shot integrity check, useful for debugging a single dataset
// without going through the API
var verifyCmd = &cobra.Command{
	Use:   "verify <dataset-id>",
	Short: "Verify one dataset's blob against its recorded digests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		datasetId := args[0]

		db, err := model.NewConnection(applicationCtx, conf, "verify-cmd")
		if err != nil {
			return
		}

		var dataset model.Dataset
		err = db.WithContext(applicationCtx).
			Where("dataset_id = ?", datasetId).
			First(&dataset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("dataset %s not found", datasetId)
		}
		if err != nil {
			return
		}

		blobs := blobstore.NewClient(conf)
		verifier := integrity.NewVerifier(conf).
			WithBlobstore(blobs)

		result := verifier.Verify(applicationCtx, integrity.Evidence{
			DatasetId:       dataset.DatasetId,
			BlobLocator:     dataset.BlobLocator,
			DigestPrimary:   dataset.DigestPrimary,
			DigestSecondary: dataset.DigestSecondary,
			IntegrityRoot:   dataset.IntegrityRoot,
		})

		var timelineCount int64
		err = db.WithContext(applicationCtx).
			Model(&model.TimelineEvent{}).
			Where("dataset_id = ?", datasetId).
			Count(&timelineCount).Error
		if err != nil {
			return
		}

		var claims []model.Claim
		err = db.WithContext(applicationCtx).
			Where("dataset_id = ?", datasetId).
			Find(&claims).Error
		if err != nil {
			return
		}

		ev := trust.EvidenceFromModel(&dataset, int(timelineCount), claims)
		score := trust.Compute(ev, dataset.VerifiedByEnclave, result.Checks())

		out, err := json.MarshalIndent(map[string]interface{}{
			"dataset_id": datasetId,
			"result":     result,
			"score":      score,
		}, "", "  ")
		if err != nil {
			return
		}
		fmt.Println(string(out))
		return
	},
}
