package userservice

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/users"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/rabbitmq"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements ports.UserService.
type Service struct {
	uow        ports.UnitOfWork
	repo       ports.UserRepository
	publisher  ports.EventPublisher
	logger     *logger.Logger
	bcryptCost int
}

// Ensure Service implements the interface at compile time.
var _ ports.UserService = (*Service)(nil)

// New creates a new UserService with the required dependencies.
func New(uow ports.UnitOfWork, repo ports.UserRepository, publisher ports.EventPublisher, logger *logger.Logger) *Service {
	return &Service{
		uow:        uow,
		repo:       repo,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Register validates input, stores the user and announces it with a
// user_registered event once the insert has committed.
func (service *Service) Register(ctx context.Context, cmd ports.RegisterUserCommand) (*users.User, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))

	// basic validation
	if len(cmd.Name) < 1 || len(cmd.Name) > 100 {
		return nil, fmt.Errorf("%w: name must be 1-100 characters long", ports.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(cmd.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: email must be a valid address", ports.ErrInvalidInput)
	}
	cmd.Email = addr.Address
	if cmd.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ports.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), service.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &users.User{
		ID:           uuid.NewString(),
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(hash),
	}

	err = service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := service.repo.Create(txCtx, user); err != nil {
			if !errors.Is(err, ports.ErrConflict) {
				service.logger.Error(ctx, "db_transaction_failed", "failed to create user", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info(ctx, "user_registered", "User registered", map[string]any{"user_id": user.ID})

	// committed; a lost event must not fail the registration
	rabbitmq.PublishBestEffort(ctx, service.publisher, service.logger,
		contracts.NewUserRegistered(user.ID, user.Name, user.Email))

	return user, nil
}

// Login returns the user whose password matches.
func (service *Service) Login(ctx context.Context, email, password string) (*users.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user *users.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = service.repo.GetByEmail(txCtx, email)
		return err
	})
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ports.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns one user or ports.ErrNotFound.
func (service *Service) Get(ctx context.Context, id string) (*users.User, error) {
	var user *users.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = service.repo.GetByID(txCtx, id)
		return err
	})
	return user, err
}

// List returns every registered user.
func (service *Service) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		out, err = service.repo.List(txCtx)
		return err
	})
	return out, err
}
