package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	clock time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory(DefaultTTL)
	s.ctx = context.Background()
	s.clock = time.Now()
	s.store.now = func() time.Time { return s.clock }
}

func (s *InMemoryStoreSuite) advance(d time.Duration) {
	s.clock = s.clock.Add(d)
}

func (s *InMemoryStoreSuite) TestIssueAndVerify() {
	tok, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)
	s.NotEmpty(tok)

	ok, err := s.store.Verify(s.ctx, 1, tok)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *InMemoryStoreSuite) TestVerifyRejectsMismatchAndAbsence() {
	ok, err := s.store.Verify(s.ctx, 1, "no-token-issued")
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)

	ok, err = s.store.Verify(s.ctx, 1, "wrong-token")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.Verify(s.ctx, 1, "")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryStoreSuite) TestSingleLiveness() {
	t1, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)
	t2, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)
	s.NotEqual(t1, t2)

	ok, err := s.store.Verify(s.ctx, 1, t1)
	s.Require().NoError(err)
	s.False(ok, "prior token must be invalidated by reissue")

	ok, err = s.store.Verify(s.ctx, 1, t2)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *InMemoryStoreSuite) TestTokensAreScopedToUser() {
	t1, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)

	ok, err := s.store.Verify(s.ctx, 2, t1)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryStoreSuite) TestExpiry() {
	tok, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)

	s.advance(DefaultTTL + time.Second)

	ok, err := s.store.Verify(s.ctx, 1, tok)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryStoreSuite) TestRefreshExtendsWithoutReissuing() {
	tok, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)

	s.advance(DefaultTTL - time.Second)

	ok, err := s.store.Refresh(s.ctx, 1, tok)
	s.Require().NoError(err)
	s.True(ok)

	// The old deadline has passed but the refreshed one has not; the same
	// token value must still verify.
	s.advance(2 * time.Second)
	ok, err = s.store.Verify(s.ctx, 1, tok)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *InMemoryStoreSuite) TestRefreshDoesNotCreateToken() {
	ok, err := s.store.Refresh(s.ctx, 1, "never-issued")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.Verify(s.ctx, 1, "never-issued")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *InMemoryStoreSuite) TestRevokeIsIdempotent() {
	s.Require().NoError(s.store.Revoke(s.ctx, 1))

	tok, err := s.store.Issue(s.ctx, 1)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Revoke(s.ctx, 1))
	s.Require().NoError(s.store.Revoke(s.ctx, 1))

	ok, err := s.store.Verify(s.ctx, 1, tok)
	s.Require().NoError(err)
	s.False(ok)
}
