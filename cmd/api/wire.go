package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"

	"rentchat/internal/adapter/api/handler"
	apimiddleware "rentchat/internal/adapter/api/middleware"
	"rentchat/internal/adapter/repository"
	domainrepo "rentchat/internal/domain/repository"
	"rentchat/internal/infrastructure/auth"
	"rentchat/internal/infrastructure/firebase"
	"rentchat/internal/usecase"
	"rentchat/pkg/config"
	"rentchat/pkg/logger"
)

// backend bundles the repositories of one persistence driver.
type backend struct {
	members    domainrepo.MemberRepository
	rentals    domainrepo.RentalRepository
	rooms      domainrepo.ChatRoomRepository
	chats      domainrepo.ChatRepository
	transactor domainrepo.Transactor
	ping       handler.Pinger
	close      func()
}

// newFirebaseApp returns nil when neither firestore nor firebase auth is configured.
func newFirebaseApp(ctx context.Context, cfg *config.Config) (*fbapp.App, error) {
	if !cfg.UsesFirebase() {
		return nil, nil
	}

	opt, err := firebase.ClientOption(cfg.FirebaseCredentialsJSON, cfg.FirebaseCredentialsPath)
	if err != nil {
		return nil, err
	}
	return firebase.NewApp(ctx, cfg.FirebaseProject, opt)
}

func openBackend(ctx context.Context, cfg *config.Config, app *fbapp.App) (*backend, error) {
	switch cfg.DBDriver {
	case "postgres", "mysql":
		gdb, err := repository.OpenGorm(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
		}
		if err := repository.MigrateGorm(gdb); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to %s", cfg.DBDriver)

		return &backend{
			members:    repository.NewGormMemberRepository(gdb),
			rentals:    repository.NewGormRentalRepository(gdb),
			rooms:      repository.NewGormChatRoomRepository(gdb),
			chats:      repository.NewGormChatRepository(gdb),
			transactor: repository.NewGormTransactor(gdb),
			ping:       sqlDB.PingContext,
			close: func() {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("close database: %v", err)
				}
			},
		}, nil

	case "firestore":
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("create firestore client: %w", err)
		}
		logger.Info("Connected to firestore project %s", cfg.FirebaseProject)

		return &backend{
			members:    repository.NewFirestoreMemberRepository(client),
			rentals:    repository.NewFirestoreRentalRepository(client),
			rooms:      repository.NewFirestoreChatRoomRepository(client),
			chats:      repository.NewFirestoreChatRepository(client),
			transactor: repository.NewFirestoreTransactor(client),
			ping:       firestorePinger(client),
			close: func() {
				if err := client.Close(); err != nil {
					logger.Warn("close firestore: %v", err)
				}
			},
		}, nil

	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		return &backend{
			members:    repository.NewMemoryMemberRepository(store),
			rentals:    repository.NewMemoryRentalRepository(store),
			rooms:      repository.NewMemoryChatRoomRepository(store),
			chats:      repository.NewMemoryChatRepository(store),
			transactor: repository.NewMemoryTransactor(store),
			close:      func() {},
		}, nil
	}

	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// firestorePinger reads a single member document to prove the project is reachable.
func firestorePinger(client *firestore.Client) handler.Pinger {
	return func(ctx context.Context) error {
		_, err := client.Collection("members").Limit(1).Documents(ctx).GetAll()
		return err
	}
}

// newAuthProvider returns the token verifier and, for jwt, the issuer used
// by login. Firebase members sign in on the client so there is no issuer.
func newAuthProvider(ctx context.Context, cfg *config.Config, app *fbapp.App) (apimiddleware.TokenVerifier, usecase.TokenIssuer, error) {
	switch cfg.AuthProvider {
	case "jwt":
		jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		return jwtManager, jwtManager, nil

	case "firebase":
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize firebase auth: %w", err)
		}
		return firebase.NewFirebaseAuthClient(authClient), nil, nil
	}

	return nil, nil, fmt.Errorf("unsupported AUTH_PROVIDER %q", cfg.AuthProvider)
}
