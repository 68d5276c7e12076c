// Package credential provides bearer tokens for the remote agent service.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// AgentsScope is the token scope accepted by the agent service.
const AgentsScope = "https://ai.azure.com/.default"

// Provider returns a bearer token for each request.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// TokenCredential adapts an azcore credential to Provider.
type TokenCredential struct {
	cred   azcore.TokenCredential
	scopes []string
}

// NewAzure creates a Provider backed by the default credential chain
// (environment, workload identity, managed identity, Azure CLI, ...).
func NewAzure() (*TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default credential: %w", err)
	}
	return FromTokenCredential(cred, AgentsScope), nil
}

// FromTokenCredential wraps an existing azcore credential.
func FromTokenCredential(cred azcore.TokenCredential, scopes ...string) *TokenCredential {
	if len(scopes) == 0 {
		scopes = []string{AgentsScope}
	}
	return &TokenCredential{cred: cred, scopes: scopes}
}

// Token fetches a token. azidentity caches tokens until shortly before expiry.
func (c *TokenCredential) Token(ctx context.Context) (string, error) {
	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: c.scopes})
	if err != nil {
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}
	return tok.Token, nil
}

// Static is a fixed token, used for the fake service and tests.
type Static string

// Token returns the fixed token.
func (s Static) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", errors.New("static token is empty")
	}
	return string(s), nil
}
