//go:build linux

package shm

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type LinuxRegionTestSuite struct {
	suite.Suite
	name string
}

func (s *LinuxRegionTestSuite) SetupTest() {
	if _, err := os.Stat(devShm); err != nil {
		s.T().Skipf("platform not available: %v", err)
	}
	s.name = "viewembed-test-" + uuid.NewString()
}

func (s *LinuxRegionTestSuite) TearDownTest() {
	_ = RemoveRegion(s.name)
}

func (s *LinuxRegionTestSuite) TestCreateThenOpenSharesBytes() {
	ctx := context.Background()
	a, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 64, Create: true})
	s.Require().NoError(err)
	defer a.Release()
	s.True(a.Created)
	s.Equal(make([]byte, 64), a.Addr)

	b, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 64})
	s.Require().NoError(err)
	defer b.Release()
	s.False(b.Created)

	copy(a.Addr, "hello")
	s.Equal("hello", string(b.Addr[:5]))
}

func (s *LinuxRegionTestSuite) TestCreateExistingIsNotFresh() {
	ctx := context.Background()
	a, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 32, Create: true})
	s.Require().NoError(err)
	defer a.Release()
	a.Addr[0] = 9

	b, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 32, Create: true})
	s.Require().NoError(err)
	defer b.Release()
	s.False(b.Created)
	s.Equal(byte(9), b.Addr[0])
}

func (s *LinuxRegionTestSuite) TestOpenMissing() {
	_, err := MapRegion(context.Background(), MapOptions{Name: s.name, Size: 32})
	s.Error(err)
}

func (s *LinuxRegionTestSuite) TestOpenSizeMismatch() {
	ctx := context.Background()
	a, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 32, Create: true})
	s.Require().NoError(err)
	defer a.Release()

	_, err = MapRegion(ctx, MapOptions{Name: s.name, Size: 64})
	s.ErrorIs(err, ErrSizeMismatch)
}

func (s *LinuxRegionTestSuite) TestInvalidName() {
	_, err := MapRegion(context.Background(), MapOptions{Name: "a/b", Size: 8, Create: true})
	s.ErrorIs(err, ErrInvalidName)
}

func (s *LinuxRegionTestSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MapRegion(ctx, MapOptions{Name: s.name, Size: 8, Create: true})
	s.ErrorIs(err, context.Canceled)
}

func TestLinuxRegionTestSuite(t *testing.T) {
	suite.Run(t, new(LinuxRegionTestSuite))
}
