package usecase

import (
	"context"

	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
)

// NoAuthnUseCase authenticates every request as a fixed user (for
// development/testing)
type NoAuthnUseCase struct {
	user *auth.Token
}

// NewNoAuthnUseCase creates a NoAuthnUseCase acting as user. A nil user
// selects the anonymous identity.
func NewNoAuthnUseCase(user *auth.Token) *NoAuthnUseCase {
	if user == nil {
		user = auth.NewAnonymousUser()
	}
	return &NoAuthnUseCase{user: user}
}

// ValidateToken ignores accessToken and returns the configured user
func (uc *NoAuthnUseCase) ValidateToken(ctx context.Context, accessToken string) (*auth.Token, error) {
	return auth.NewToken(uc.user.Sub, uc.user.Email, uc.user.Name), nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
