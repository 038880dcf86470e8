package firebase

import (
	"context"
	"fmt"
	"os"

	fbapp "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"rentchat/pkg/logger"
)

// ClientOption picks the service account credentials: inline JSON wins
// over a file path, and with neither the application default credentials
// are used.
func ClientOption(credentialsJSON, credentialsPath string) (option.ClientOption, error) {
	if credentialsJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(credentialsJSON)), nil
	}

	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file does not exist: %s", credentialsPath)
		}
		logger.Info("Using Firebase service account from file: %s", credentialsPath)
		return option.WithCredentialsFile(credentialsPath), nil
	}

	return nil, nil
}

func NewApp(ctx context.Context, projectID string, opt option.ClientOption) (*fbapp.App, error) {
	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}
	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase: %w", err)
	}
	return app, nil
}
