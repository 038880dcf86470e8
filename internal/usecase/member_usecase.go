package usecase

import (
	"context"
	"time"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
)

type MemberUseCase struct {
	memberRepo repository.MemberRepository
	transactor repository.Transactor
	hasher     PasswordHasher
	tokens     TokenIssuer
}

// NewMemberUseCase wires signup and login. tokens is nil when members
// authenticate with an external identity provider.
func NewMemberUseCase(memberRepo repository.MemberRepository, transactor repository.Transactor, hasher PasswordHasher, tokens TokenIssuer) *MemberUseCase {
	return &MemberUseCase{
		memberRepo: memberRepo,
		transactor: transactor,
		hasher:     hasher,
		tokens:     tokens,
	}
}

type SignupInput struct {
	Email      string
	Nickname   string
	Password   string
	ProfileURL string
}

type LoginResult struct {
	Member    *entity.Member `json:"member"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (uc *MemberUseCase) Signup(ctx context.Context, input SignupInput) (*entity.Member, error) {
	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Internal("Failed to hash password", err)
	}

	member := &entity.Member{
		Email:        input.Email,
		Nickname:     input.Nickname,
		ProfileURL:   input.ProfileURL,
		PasswordHash: hash,
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := uc.memberRepo.GetByEmail(ctx, input.Email); !isNotFound(err) {
			return unavailable("Email", err)
		}
		if _, err := uc.memberRepo.GetByNickname(ctx, input.Nickname); !isNotFound(err) {
			return unavailable("Nickname", err)
		}
		return uc.memberRepo.Create(ctx, member)
	})
	if err != nil {
		logger.Error("Signup: %s: %v", input.Email, err)
		return nil, err
	}

	logger.Info("Member %s signed up as %s", member.ID, member.Nickname)
	return member, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.CodeNotFound)
}

// unavailable reports a taken field, or the lookup failure itself.
func unavailable(field string, lookupErr error) error {
	if lookupErr != nil {
		return lookupErr
	}
	return errors.Conflict(field + " already in use")
}

func (uc *MemberUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if uc.tokens == nil {
		return nil, errors.BadRequest("Password login is disabled for this identity provider", nil)
	}

	member, err := uc.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Unauthorized("Invalid email or password", nil)
		}
		return nil, err
	}

	if !uc.hasher.Compare(member.PasswordHash, password) {
		logger.Warn("Login: wrong password for %s", email)
		return nil, errors.Unauthorized("Invalid email or password", nil)
	}

	token, expiresAt, err := uc.tokens.Issue(member.Email)
	if err != nil {
		return nil, errors.Internal("Failed to issue access token", err)
	}

	return &LoginResult{
		Member:    member,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (uc *MemberUseCase) Me(ctx context.Context, email string) (*entity.Member, error) {
	return uc.memberRepo.GetByEmail(ctx, email)
}
