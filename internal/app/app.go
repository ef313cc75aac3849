// Package app wires the storefront services onto one storage backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/review"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/kv"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/query"
	"github.com/example/ec-storefront/internal/seed"
)

var ErrTokenWithoutSecret = errors.New("a session token was given but JWT_SECRET is not set")

// Options select how the session is held.
type Options struct {
	// Token, when set, makes the session token-based instead of persisted
	// under currentUser.
	Token string
}

type App struct {
	Config     config.Config
	Backend    kv.Backend
	EventStore *store.EventStore
	JWT        *auth.JWTService
	Session    user.Session

	Users    *user.Service
	Products *product.Service
	Reviews  *review.Service
	Carts    *cart.Service
	Orders   *order.Service

	Commands *command.Handler
	Queries  *query.Handler

	producer *kafka.Producer
}

// New opens the configured backend and builds every service on it.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := Build(cfg, backend, opts)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// Build wires the services onto an open backend. The app takes ownership
// of backend.
func Build(cfg config.Config, backend kv.Backend, opts Options) (*App, error) {
	hasher, err := auth.NewPasswordHasher(cfg.PasswordMode)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Backend: backend}
	if cfg.JWTSecret != "" {
		a.JWT = auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	}

	switch {
	case opts.Token != "" && a.JWT == nil:
		return nil, ErrTokenWithoutSecret
	case opts.Token != "":
		a.Session = user.NewTokenSession(a.JWT, opts.Token)
	default:
		a.Session = user.NewPersistentSession(backend)
	}

	var publisher store.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = a.producer
		log.Printf("[App] Publishing events to Kafka topic %s", cfg.KafkaTopic)
	}
	a.EventStore = store.NewEventStore(backend, publisher)

	var (
		seedUsers    func() []user.User
		seedProducts func() []product.Product
	)
	if cfg.SeedData {
		seedUsers = seed.Users
		seedProducts = seed.Products
	}

	a.Users = user.NewService(backend, a.EventStore, a.Session, hasher, seedUsers)
	a.Products = product.NewService(backend, a.EventStore, seedProducts)
	a.Reviews = review.NewService(backend)
	a.Carts = cart.NewService(backend)
	a.Orders = order.NewService(backend, a.EventStore, a.Products)

	a.Commands = command.NewHandler(a.Users, a.Products, a.Reviews, a.Carts, a.Orders)
	a.Queries = query.NewHandler(a.Users, a.Products, a.Reviews, a.Carts, a.Orders)
	return a, nil
}

// IssueToken signs a token for the session's current user.
func (a *App) IssueToken(ctx context.Context) (string, error) {
	if a.JWT == nil {
		return "", ErrTokenWithoutSecret
	}
	u, err := a.Users.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", order.ErrNoAuthenticatedUser
	}
	token, _, err := a.JWT.GenerateToken(u.ID, u.Username, string(u.Role))
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	errs = append(errs, a.Backend.Close())
	return errors.Join(errs...)
}
