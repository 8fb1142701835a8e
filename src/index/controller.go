package index

import (
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/model"
	"github.com/ducnmm/datacert/src/utils/monitoring"
	monitor_indexer "github.com/ducnmm/datacert/src/utils/monitoring/indexer"
	"github.com/ducnmm/datacert/src/utils/task"
)

type Controller struct {
	*task.Task
}

// NewController wires one poller per ledger event category into a
// shared projection store
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "indexer")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "indexer")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_indexer.NewMonitor()
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Ledger client
	client, err := ledger.NewClient(config)
	if err != nil {
		self.Log.WithError(err).Error("Could not create ledger client")
		return
	}

	// Reconciles events into the projection
	store := NewStore(config).
		WithDB(db).
		WithMonitor(monitor)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task)

	for _, category := range ledger.Categories() {
		poller := NewPoller(config, category).
			WithClient(client).
			WithStore(store).
			WithMonitor(monitor)
		self.Task = self.Task.WithSubtask(poller.Task)
	}

	return
}
