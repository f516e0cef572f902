package lingotests

import (
	"context"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
)

// BaseTestSuite starts the resources returned by InitResourceFunc on a shared docker network.
type BaseTestSuite struct {
	suite.Suite
	Network   *testcontainers.DockerNetwork
	resources []Resource

	InitResourceFunc func(ctx context.Context) []Resource
}

func (s *BaseTestSuite) SetupSuite() {
	t := s.T()
	ctx := t.Context()
	log := util.Log(ctx)

	require.NotNil(t, s.InitResourceFunc, "InitResourceFunc is required")

	ntwk, err := network.New(ctx)
	require.NoError(t, err, "could not create network")
	s.Network = ntwk

	s.resources = s.InitResourceFunc(ctx)
	for _, dep := range s.resources {
		log.WithField("image", dep.Name()).Info("Setting up container...")
		require.NoError(t, dep.Setup(ctx, ntwk), "could not setup tests")
	}
}

// Resources returns the started resources in setup order.
func (s *BaseTestSuite) Resources() []Resource {
	return s.resources
}

func (s *BaseTestSuite) TearDownSuite() {
	ctx := context.Background()

	for _, dep := range s.resources {
		dep.Cleanup(ctx)
	}

	if s.Network != nil {
		require.NoError(s.T(), s.Network.Remove(ctx), "could not remove network")
	}
}
