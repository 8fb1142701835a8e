package register

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ducnmm/datacert/src/trust"
	"github.com/ducnmm/datacert/src/utils/config"
	monitor_registrar "github.com/ducnmm/datacert/src/utils/monitoring/registrar"
	"github.com/ducnmm/datacert/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// ScoreUpdate is the message published after every fresh score
type ScoreUpdate struct {
	DatasetId         string    `json:"dataset_id"`
	Total             int       `json:"total"`
	VerifiedByEnclave bool      `json:"verified_by_enclave"`
	Timestamp         time.Time `json:"timestamp"`
}

func (self ScoreUpdate) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

// Notifier forwards score updates to a Redis channel so downstream
// consumers (marketplace UI, alerting) learn about score changes
// without polling the projection
type Notifier struct {
	*task.Task

	redisConfig config.Redis

	monitor *monitor_registrar.Monitor

	client      *redis.Client
	channelName string
	input       chan ScoreUpdate
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)

	self.redisConfig = config.Redis
	self.channelName = config.Registrar.ScoreUpdateChannel

	self.Task = task.NewTask(config, "score-notifier").
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect).
		WithWorkerPool(config.Registrar.NotifierMaxWorkers, config.Registrar.NotifierMaxQueueSize)

	return
}

func (self *Notifier) WithInputChannel(v chan ScoreUpdate) *Notifier {
	self.input = v
	return self
}

func (self *Notifier) WithMonitor(monitor *monitor_registrar.Monitor) *Notifier {
	self.monitor = monitor
	return self
}

func (self *Notifier) connect() (err error) {
	self.client = redis.NewClient(&redis.Options{
		ClientName:      fmt.Sprintf("datacert/%s", self.Name),
		Addr:            fmt.Sprintf("%s:%d", self.redisConfig.Host, self.redisConfig.Port),
		Password:        self.redisConfig.Password,
		Username:        self.redisConfig.User,
		DB:              self.redisConfig.DB,
		MinIdleConns:    self.redisConfig.MinIdleConns,
		MaxIdleConns:    self.redisConfig.MaxIdleConns,
		ConnMaxIdleTime: self.redisConfig.ConnMaxIdleTime,
		PoolSize:        self.redisConfig.MaxOpenConns,
		ConnMaxLifetime: self.redisConfig.ConnMaxLifetime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}

	return
}

func (self *Notifier) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close Redis connection")
	}
}

// Notify queues one update, never blocks the request path
func (self *Notifier) Notify(score *trust.Score) {
	update := ScoreUpdate{
		DatasetId:         score.DatasetId,
		Total:             score.Total,
		VerifiedByEnclave: score.VerifiedByEnclave,
		Timestamp:         score.Timestamp,
	}
	select {
	case self.input <- update:
	default:
		self.Log.WithField("dataset_id", score.DatasetId).
			Warn("Score update channel full, dropping notification")
		self.monitor.Report.Registrar.Errors.NotifyFailures.Inc()
	}
}

func (self *Notifier) run() (err error) {
	for {
		var update ScoreUpdate
		var ok bool
		select {
		case <-self.StopChannel:
			// Queued updates are dropped, consumers re-read the
			// projection on reconnect anyway
			return nil
		case update, ok = <-self.input:
			if !ok {
				return nil
			}
		}

		submitErr := self.SubmitToWorker(func() {
			err := task.NewRetry().
				WithContext(self.Ctx).
				WithMaxElapsedTime(self.redisConfig.MaxElapsedTime).
				WithMaxInterval(self.redisConfig.MaxInterval).
				WithOnError(func(err error) error {
					self.Log.WithError(err).Error("Failed to publish score update, retrying")
					return err
				}).
				Run(func() (err error) {
					return self.client.Publish(self.Ctx, self.channelName, update).Err()
				})
			if err != nil {
				self.Log.WithError(err).
					WithField("dataset_id", update.DatasetId).
					Error("Failed to publish score update, giving up")
				self.monitor.Report.Registrar.Errors.NotifyFailures.Inc()
			}
		})
		if submitErr != nil {
			self.Log.WithError(submitErr).
				WithField("dataset_id", update.DatasetId).
				Warn("Worker queue full, dropping score update")
			self.monitor.Report.Registrar.Errors.NotifyFailures.Inc()
		}
	}
}
