package register

import (
	"github.com/ducnmm/datacert/src/utils/blobstore"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/enclave"
	"github.com/ducnmm/datacert/src/utils/integrity"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/model"
	"github.com/ducnmm/datacert/src/utils/monitoring"
	monitor_registrar "github.com/ducnmm/datacert/src/utils/monitoring/registrar"
	"github.com/ducnmm/datacert/src/utils/task"
)

type Controller struct {
	*task.Task
}

// NewController wires the registration API with its blob store,
// ledger publisher, enclave attestor and the optional Redis notifier
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "registrar")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "registrar")
	if err != nil {
		return
	}

	// Monitoring
	monitor := monitor_registrar.NewMonitor()
	monitorServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Ledger client and the capability holding publisher
	client, err := ledger.NewClient(config)
	if err != nil {
		self.Log.WithError(err).Error("Could not create ledger client")
		return
	}
	publisher := ledger.NewPublisher(config, client)

	// Blob gateway
	blobs := blobstore.NewClient(config)

	// Integrity verifier
	verifier := integrity.NewVerifier(config).
		WithBlobstore(blobs)

	// Enclave attestor
	attestor, err := enclave.NewAttestor(config)
	if err != nil {
		self.Log.WithError(err).Error("Could not create enclave attestor")
		return
	}

	// Score update notifier, only when Redis is configured
	var notifier *Notifier
	if config.Redis.Enabled {
		notifier = NewNotifier(config).
			WithInputChannel(make(chan ScoreUpdate, config.Registrar.NotifierMaxQueueSize)).
			WithMonitor(monitor)
	}

	service := NewService(config).
		WithDB(db).
		WithBlobstore(blobs).
		WithVerifier(verifier).
		WithAttestor(attestor).
		WithPublisher(publisher).
		WithNotifier(notifier).
		WithMonitor(monitor)

	server := NewServer(config).
		WithService(service)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(monitorServer.Task).
		WithConditionalSubtask(notifier != nil, taskOf(notifier)).
		WithSubtask(server.Task)

	return
}

// taskOf avoids dereferencing a nil notifier when Redis is disabled
func taskOf(notifier *Notifier) *task.Task {
	if notifier == nil {
		return nil
	}
	return notifier.Task
}
