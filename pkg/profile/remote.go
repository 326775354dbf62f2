package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/synaptica-ai/riskengine/pkg/common/httpclient"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// RemoteConfig describes the profile service. When ClientID is empty the
// service is called without credentials.
type RemoteConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	Attempts     int
}

// Remote reads gender from the user profile service over HTTP.
type Remote struct {
	baseURL  string
	client   *http.Client
	attempts int
}

type profileResponse struct {
	Gender string `json:"gender"`
}

func NewRemote(cfg RemoteConfig) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}

	client := httpclient.New(timeout)
	if cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		authed := cc.Client(ctx)
		authed.Timeout = timeout
		client = authed
	}

	return &Remote{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client:   client,
		attempts: attempts,
	}
}

func (r *Remote) Gender(ctx context.Context, identifier string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/user/profile?email=%s", r.baseURL, url.QueryEscape(identifier))

	var gender string
	err := httpclient.Retry(ctx, r.attempts, 100*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return httpclient.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return httpclient.Permanent(ErrProfileNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("profile service returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return httpclient.Permanent(fmt.Errorf("profile service returned %d", resp.StatusCode))
		}

		var body profileResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return httpclient.Permanent(fmt.Errorf("decode profile: %w", err))
		}
		gender = body.Gender
		return nil
	})
	if err != nil {
		return "", err
	}
	return gender, nil
}
