package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
)

type firestoreMemberRepository struct {
	client *firestore.Client
}

func NewFirestoreMemberRepository(client *firestore.Client) repository.MemberRepository {
	return &firestoreMemberRepository{
		client: client,
	}
}

func (r *firestoreMemberRepository) Create(ctx context.Context, member *entity.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	if err := setDoc(ctx, r.client.Collection(membersCollection).Doc(member.ID), member); err != nil {
		return errors.Internal("Failed to create member", err)
	}
	return nil
}

func (r *firestoreMemberRepository) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	doc, err := getDoc(ctx, r.client.Collection(membersCollection).Doc(id))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Member", err)
		}
		return nil, errors.Internal("Failed to get member", err)
	}

	var member entity.Member
	if err := doc.DataTo(&member); err != nil {
		return nil, errors.Internal("Failed to parse member data", err)
	}
	return &member, nil
}

func (r *firestoreMemberRepository) GetByEmail(ctx context.Context, email string) (*entity.Member, error) {
	return r.findOne(ctx, "email", email)
}

func (r *firestoreMemberRepository) GetByNickname(ctx context.Context, nickname string) (*entity.Member, error) {
	return r.findOne(ctx, "nickname", nickname)
}

func (r *firestoreMemberRepository) findOne(ctx context.Context, field, value string) (*entity.Member, error) {
	query := r.client.Collection(membersCollection).Where(field, "==", value).Limit(1)
	docs, err := queryDocs(ctx, query)
	if err != nil {
		return nil, errors.Internal("Failed to query member", err)
	}
	if len(docs) == 0 {
		return nil, errors.NotFound("Member", nil)
	}

	var member entity.Member
	if err := docs[0].DataTo(&member); err != nil {
		return nil, errors.Internal("Failed to parse member data", err)
	}
	return &member, nil
}
