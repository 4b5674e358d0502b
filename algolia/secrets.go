// Package algolia mirrors custody records into Algolia indices so they can
// be searched remotely with the same fields used locally.
package algolia

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteAPIKey is the Algolia write API key.
	WriteAPIKey string `json:"write_api_key"`
}

func (s Secrets) validate() error {
	if s.AppID == "" {
		return errors.Wrap(cautela.ErrMissingConfig, "algolia app id is empty")
	}
	if s.WriteAPIKey == "" {
		return errors.Wrap(cautela.ErrMissingConfig, "algolia write api key is empty")
	}
	return nil
}

// FetchSecrets retrieves Algolia credentials.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns credentials known up front.
func StaticSecrets(appID, writeAPIKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteAPIKey: writeAPIKey,
		}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, errors.Wrap(cautela.ErrMissingConfig, "ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, errors.Wrap(cautela.ErrMissingConfig, "ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteAPIKey: apiKey,
		}, nil
	}
}
