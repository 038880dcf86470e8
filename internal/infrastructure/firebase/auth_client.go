package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// FirebaseAuthClient verifies Firebase ID tokens. Members are identified by
// email, so the verified token must carry an email claim.
type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	return EmailFromClaims(token.Claims)
}

func EmailFromClaims(claims map[string]interface{}) (string, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("token has no email claim")
	}
	return email, nil
}
