package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/brandforge-ai/brandforge-backend/config"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseStore implements Store on Firebase Auth. Admin operations go through
// the Admin SDK; password sign-in goes through the Identity Toolkit REST
// endpoint, which is the only password grant Firebase exposes to servers.
type FirebaseStore struct {
	auth      *auth.Client
	webAPIKey string
	signInURL string
	http      *http.Client
}

// InitializeFirebase initializes the Firebase Admin SDK and wraps its Auth
// client as an identity Store.
func InitializeFirebase(cfg *config.FirebaseConfig) (*FirebaseStore, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	return &FirebaseStore{
		auth:      authClient,
		webAPIKey: cfg.WebAPIKey,
		signInURL: identityToolkitURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *FirebaseStore) CreateUser(ctx context.Context, cred Credential, meta Metadata) (*User, error) {
	params := (&auth.UserToCreate{}).
		Email(cred.Email).
		Password(cred.Password).
		EmailVerified(true)
	if name, ok := meta["display_name"].(string); ok && name != "" {
		params = params.DisplayName(name)
	}

	record, err := s.auth.CreateUser(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if len(meta) > 0 {
		if err := s.auth.SetCustomUserClaims(ctx, record.UID, map[string]interface{}(meta)); err != nil {
			return nil, fmt.Errorf("set claims: %w", err)
		}
	}

	return &User{ID: record.UID, Email: cred.Email, DisplayName: record.DisplayName}, nil
}

func (s *FirebaseStore) SignIn(ctx context.Context, cred Credential) (*Session, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"email":             cred.Email,
		"password":          cred.Password,
		"returnSecureToken": true,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.signInURL+"?key="+s.webAPIKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sign in failed (status %d)", resp.StatusCode)
	}

	var out struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sign in decode: %w", err)
	}

	expiresIn, _ := strconv.ParseInt(out.ExpiresIn, 10, 64)
	return &Session{
		AccessToken:  out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    time.Now().Unix() + expiresIn,
	}, nil
}

func (s *FirebaseStore) Verify(ctx context.Context, token string) (string, error) {
	decoded, err := s.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return decoded.UID, nil
}
