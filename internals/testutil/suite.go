package testutil

import (
	"context"

	database "pesantrenku_backend/internals/databases"
	"pesantrenku_backend/internals/logger"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// BaseSuite gives every test a fresh database.
type BaseSuite struct {
	suite.Suite
	Ctx    context.Context
	DB     *gorm.DB
	Client *database.Client
	Log    *logger.Logger
}

func (s *BaseSuite) SetupTest() {
	s.Ctx = context.Background()
	s.Log = logger.NewNop()
	s.DB, s.Client = NewClient(s.T())
}
