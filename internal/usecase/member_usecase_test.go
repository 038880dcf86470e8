package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentchat/pkg/errors"
)

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)

	member, err := f.member.Signup(f.ctx, SignupInput{
		Email:    "new@x.com",
		Nickname: "newbie",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, member.ID)
	assert.NotEqual(t, "password123", member.PasswordHash)

	result, err := f.member.Login(f.ctx, "new@x.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, member.ID, result.Member.ID)

	me, err := f.member.Me(f.ctx, "new@x.com")
	require.NoError(t, err)
	assert.Equal(t, "newbie", me.Nickname)
}

func TestSignupRejectsTakenIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.member.Signup(f.ctx, SignupInput{Email: "a@x.com", Nickname: "fresh", Password: "password123"})
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, err = f.member.Signup(f.ctx, SignupInput{Email: "fresh@x.com", Nickname: "a-nick", Password: "password123"})
	assert.True(t, errors.Is(err, errors.CodeConflict))
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	_, err := f.member.Signup(f.ctx, SignupInput{Email: "new@x.com", Nickname: "newbie", Password: "password123"})
	require.NoError(t, err)

	_, err = f.member.Login(f.ctx, "new@x.com", "wrong")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = f.member.Login(f.ctx, "ghost@x.com", "password123")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	withoutTokens := NewMemberUseCase(f.members, f.tx, nil, nil)
	_, err = withoutTokens.Login(f.ctx, "new@x.com", "password123")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}
