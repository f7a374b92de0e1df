package userservice

import (
	"context"
	"errors"
	"testing"

	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/ports/portstest"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc  *Service
	uow  *portstest.UnitOfWork
	repo *portstest.Users
	pub  *portstest.Publisher
}

func newFixture() fixture {
	f := fixture{
		uow:  &portstest.UnitOfWork{},
		repo: portstest.NewUsers(),
		pub:  &portstest.Publisher{},
	}
	f.svc = New(f.uow, f.repo, f.pub, logger.NewNop())
	f.svc.bcryptCost = bcrypt.MinCost
	return f
}

func TestRegister_StoresHashAndPublishes(t *testing.T) {
	f := newFixture()

	u, err := f.svc.Register(context.Background(), ports.RegisterUserCommand{
		Name: " Ann ", Email: "Ann@X.com", Password: "secret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.NotEqual(t, "secret", u.PasswordHash)

	events := f.pub.Published()
	require.Len(t, events, 1)
	assert.Equal(t, contracts.UserRegistered, events[0].Type)
	assert.Equal(t, contracts.Payload{"id": u.ID, "name": "Ann", "email": "ann@x.com"}, events[0].Payload)
}

func TestRegister_PublishFailureDoesNotFailRegistration(t *testing.T) {
	f := newFixture()
	f.pub.Err = errors.New("channel closed")

	u, err := f.svc.Register(context.Background(), ports.RegisterUserCommand{
		Name: "Ann", Email: "ann@x.com", Password: "secret",
	})
	require.NoError(t, err)

	stored, err := f.repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", stored.Email)
	assert.Equal(t, 1, f.uow.Commits)
}

func TestRegister_Validation(t *testing.T) {
	cases := []ports.RegisterUserCommand{
		{Name: "", Email: "ann@x.com", Password: "p"},
		{Name: "Ann", Email: "not-an-email", Password: "p"},
		{Name: "Ann", Email: "ann@x.com", Password: ""},
	}
	for _, cmd := range cases {
		f := newFixture()
		_, err := f.svc.Register(context.Background(), cmd)
		assert.ErrorIs(t, err, ports.ErrInvalidInput)
		assert.Empty(t, f.pub.Published())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, ports.RegisterUserCommand{Name: "Ann", Email: "ann@x.com", Password: "p"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, ports.RegisterUserCommand{Name: "Other", Email: "ANN@x.com", Password: "q"})
	assert.ErrorIs(t, err, ports.ErrConflict)
	assert.Len(t, f.pub.Published(), 1)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, ports.RegisterUserCommand{Name: "Ann", Email: "ann@x.com", Password: "secret"})
	require.NoError(t, err)

	u, err := f.svc.Login(ctx, "ann@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	_, err = f.svc.Login(ctx, "ann@x.com", "wrong")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@x.com", "secret")
	assert.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRegister_StoresBareAddressFromDisplayName(t *testing.T) {
	f := newFixture()

	u, err := f.svc.Register(context.Background(), ports.RegisterUserCommand{
		Name: "Ann", Email: "Ann <Ann@X.com>", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", u.Email)

	events := f.pub.Published()
	require.Len(t, events, 1)
	email, _ := events[0].Payload.String("email")
	assert.Equal(t, "ann@x.com", email)
}
