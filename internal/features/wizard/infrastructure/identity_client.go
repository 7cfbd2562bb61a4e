package infrastructure

import (
	"context"
	"net/http"
	"net/url"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

// DefaultIdentityURL is the identity provider's REST endpoint.
const DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"

// IdentityClient signs customers in and up against the identity provider and
// issues the wizard's own session tokens for them.
type IdentityClient struct {
	bakeryClient
	apiKey   string
	profiles *ProfileClient
	tokens   *TokenIssuer
}

// NewIdentityClient creates an auth gate. profiles receives the customer
// record of every new account.
func NewIdentityClient(baseURL, apiKey string, profiles *ProfileClient, tokens *TokenIssuer, hc *http.Client, log *logger.Logger) *IdentityClient {
	if baseURL == "" {
		baseURL = DefaultIdentityURL
	}
	return &IdentityClient{
		bakeryClient: newBakeryClient("identity", baseURL, hc, log),
		apiKey:       apiKey,
		profiles:     profiles,
		tokens:       tokens,
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID string `json:"localId"`
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

func (c *IdentityClient) call(ctx context.Context, action string, body, out any) error {
	return c.do(ctx, http.MethodPost, "/accounts:"+action+"?key="+url.QueryEscape(c.apiKey), body, out)
}

// SignIn verifies email and password.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) (*domain.Credentials, error) {
	var acct accountResponse
	err := c.call(ctx, "signInWithPassword", passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &acct)
	if err != nil {
		return nil, err
	}
	return c.credentials(acct.LocalID)
}

// SignUp creates the account and the customer record. When the record cannot
// be stored the account is deleted again so a retry starts clean.
func (c *IdentityClient) SignUp(ctx context.Context, p domain.RegisterProfile) (*domain.Credentials, error) {
	var acct accountResponse
	err := c.call(ctx, "signUp", passwordRequest{Email: p.Email, Password: p.Password, ReturnSecureToken: true}, &acct)
	if err != nil {
		return nil, err
	}
	if err := c.profiles.CreateProfile(ctx, acct.LocalID, p); err != nil {
		body := struct {
			IDToken string `json:"idToken"`
		}{acct.IDToken}
		if derr := c.call(ctx, "delete", body, nil); derr != nil {
			c.log.Error("rolling back account %s failed: %v", acct.LocalID, derr)
		}
		return nil, err
	}
	return c.credentials(acct.LocalID)
}

func (c *IdentityClient) credentials(userID string) (*domain.Credentials, error) {
	token, err := c.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}
	return &domain.Credentials{Token: token, UserID: userID}, nil
}
