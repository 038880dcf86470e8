package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentchat/internal/domain/repository"
)

const (
	membersCollection   = "members"
	rentalsCollection   = "rentals"
	chatRoomsCollection = "chat_rooms"
	chatsCollection     = "chats"
)

type firestoreTxKey struct{}

type firestoreTransactor struct {
	client *firestore.Client
}

// NewFirestoreTransactor runs units of work through RunTransaction.
// Firestore requires every read of a transaction to happen before its
// first write, so callers load everything they need up front.
func NewFirestoreTransactor(client *firestore.Client) repository.Transactor {
	return &firestoreTransactor{client: client}
}

func (t *firestoreTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if firestoreTx(ctx) != nil {
		return fn(ctx)
	}
	return t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(context.WithValue(ctx, firestoreTxKey{}, tx))
	})
}

func firestoreTx(ctx context.Context) *firestore.Transaction {
	tx, _ := ctx.Value(firestoreTxKey{}).(*firestore.Transaction)
	return tx
}

func getDoc(ctx context.Context, ref *firestore.DocumentRef) (*firestore.DocumentSnapshot, error) {
	if tx := firestoreTx(ctx); tx != nil {
		return tx.Get(ref)
	}
	return ref.Get(ctx)
}

func queryDocs(ctx context.Context, query firestore.Query) ([]*firestore.DocumentSnapshot, error) {
	if tx := firestoreTx(ctx); tx != nil {
		return tx.Documents(query).GetAll()
	}
	return query.Documents(ctx).GetAll()
}

func setDoc(ctx context.Context, ref *firestore.DocumentRef, data interface{}) error {
	if tx := firestoreTx(ctx); tx != nil {
		return tx.Set(ref, data)
	}
	_, err := ref.Set(ctx, data)
	return err
}

func updateDoc(ctx context.Context, ref *firestore.DocumentRef, updates []firestore.Update) error {
	if tx := firestoreTx(ctx); tx != nil {
		return tx.Update(ref, updates)
	}
	_, err := ref.Update(ctx, updates)
	return err
}

func deleteDoc(ctx context.Context, ref *firestore.DocumentRef) error {
	if tx := firestoreTx(ctx); tx != nil {
		return tx.Delete(ref)
	}
	_, err := ref.Delete(ctx)
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
