package register

import (
	"context"
	"testing"

	"github.com/ducnmm/datacert/src/register/request"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/ledger"
	monitor_registrar "github.com/ducnmm/datacert/src/utils/monitoring/registrar"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

type ServiceTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *ServiceTestSuite) SetupSuite() {
	s.config = config.Default()
}

func (s *ServiceTestSuite) mockService() (service *Service, mock sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	s.NoError(err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.NoError(err)

	client, err := ledger.NewClient(s.config)
	s.NoError(err)

	service = NewService(s.config).
		WithDB(db).
		WithPublisher(ledger.NewPublisher(s.config, client)).
		WithMonitor(monitor_registrar.NewMonitor())
	return
}

func (s *ServiceTestSuite) expectDataset(mock sqlmock.Sqlmock, policyType string) {
	rows := sqlmock.NewRows([]string{"id", "dataset_id", "status", "policy_type", "min_stake"}).
		AddRow(1, "ds-1", "certified", policyType, 0)
	mock.ExpectQuery(`SELECT .* FROM "datasets" WHERE dataset_id`).
		WillReturnRows(rows)
}

func (s *ServiceTestSuite) TestGrantAccessWritesOnce() {
	service, mock := s.mockService()
	s.expectDataset(mock, "public")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "dataset_access_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "datasets" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "dataset_timeline"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	out, err := service.GrantAccess(context.Background(), "ds-1", &request.GrantAccess{
		Requester: "buyer-1",
		Purpose:   "model training",
		Price:     10,
	})
	s.NoError(err)
	s.NotNil(out)
	s.NotNil(out.Receipt)
	s.NoError(mock.ExpectationsWereMet())
}

func (s *ServiceTestSuite) TestGrantAccessAlreadyIndexed() {
	service, mock := s.mockService()
	s.expectDataset(mock, "public")

	// The indexer applied the same grant first, the conflicting
	// insert must not fail the request or move the counters again
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "dataset_access_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	out, err := service.GrantAccess(context.Background(), "ds-1", &request.GrantAccess{
		Requester: "buyer-1",
		Purpose:   "model training",
		Price:     10,
	})
	s.NoError(err)
	s.NotNil(out)
	s.NoError(mock.ExpectationsWereMet())
}

func (s *ServiceTestSuite) TestGrantAccessStakeGateRejects() {
	service, mock := s.mockService()

	// No write expectations, a rejected grant touches nothing
	rows := sqlmock.NewRows([]string{"id", "dataset_id", "status", "policy_type", "min_stake"}).
		AddRow(1, "ds-2", "certified", "stake_gated", 100)
	mock.ExpectQuery(`SELECT .* FROM "datasets" WHERE dataset_id`).
		WillReturnRows(rows)

	_, err := service.GrantAccess(context.Background(), "ds-2", &request.GrantAccess{
		Requester: "buyer-1",
		Stake:     1,
	})
	s.ErrorIs(err, ledger.ErrInsufficientStake)
	s.NoError(mock.ExpectationsWereMet())
}
