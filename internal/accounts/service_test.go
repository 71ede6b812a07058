package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/Nattanjunior/apoiadev-backend/pkg/db/models"
	pkgerrors "github.com/Nattanjunior/apoiadev-backend/pkg/errors"
)

type stubCreatorRepo struct {
	creator *models.Creator
	err     error
}

func (s *stubCreatorRepo) FindByID(context.Context, uuid.UUID) (*models.Creator, error) {
	return s.creator, s.err
}

type stubLoginLinkClient struct {
	link       *stripe.LoginLink
	err        error
	gotAccount string
	calls      int
}

func (s *stubLoginLinkClient) CreateLoginLink(_ context.Context, params *stripe.LoginLinkParams) (*stripe.LoginLink, error) {
	s.calls++
	if params != nil {
		s.gotAccount = stripe.StringValue(params.Account)
	}
	return s.link, s.err
}

func newTestService(t *testing.T, creators *stubCreatorRepo, client *stubLoginLinkClient) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CreatorRepo:  creators,
		StripeClient: client,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	_, err = NewService(ServiceParams{CreatorRepo: &stubCreatorRepo{}})
	require.Error(t, err)
}

func TestDashboardLinkForConnectedCreator(t *testing.T) {
	accountID := "acct_123"
	client := &stubLoginLinkClient{
		link: &stripe.LoginLink{URL: "https://connect.stripe.com/express/abc"},
	}
	svc := newTestService(t, &stubCreatorRepo{
		creator: &models.Creator{ID: uuid.New(), StripeAccountID: &accountID},
	}, client)

	url, err := svc.DashboardLink(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, "https://connect.stripe.com/express/abc", *url)
	assert.Equal(t, "acct_123", client.gotAccount)
}

func TestDashboardLinkWithoutConnectedAccount(t *testing.T) {
	client := &stubLoginLinkClient{}
	svc := newTestService(t, &stubCreatorRepo{
		creator: &models.Creator{ID: uuid.New()},
	}, client)

	url, err := svc.DashboardLink(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, url)
	assert.Zero(t, client.calls)
}

func TestDashboardLinkCreatorNotFound(t *testing.T) {
	svc := newTestService(t, &stubCreatorRepo{err: gorm.ErrRecordNotFound}, &stubLoginLinkClient{})

	_, err := svc.DashboardLink(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDashboardLinkRejectsNilCreatorID(t *testing.T) {
	svc := newTestService(t, &stubCreatorRepo{}, &stubLoginLinkClient{})

	_, err := svc.DashboardLink(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestResolveManagementLinkSwallowsStripeFailure(t *testing.T) {
	client := &stubLoginLinkClient{err: errors.New("account not ready")}
	svc := newTestService(t, &stubCreatorRepo{}, client)

	url := svc.ResolveManagementLink(context.Background(), "acct_123")
	assert.Nil(t, url)
	assert.Equal(t, 1, client.calls)
}

func TestResolveManagementLinkEmptyAccount(t *testing.T) {
	client := &stubLoginLinkClient{}
	svc := newTestService(t, &stubCreatorRepo{}, client)

	assert.Nil(t, svc.ResolveManagementLink(context.Background(), ""))
	assert.Nil(t, svc.ResolveManagementLink(context.Background(), "   "))
	assert.Zero(t, client.calls)
}
