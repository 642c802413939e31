package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/domain/ports/adapter"
)

// CredentialUseCase keeps the shared commerce credential valid. It is invoked
// at the top of every dispatch, before any backend call needs the token.
// Concurrent refresh races are tolerated: issuance is idempotent and the last
// writer wins.
type CredentialUseCase struct {
	gateway adapter.CommerceGateway
	now     func() time.Time
	log     *zerolog.Logger
}

func NewCredentialUseCase(gateway adapter.CommerceGateway, logger *zerolog.Logger) *CredentialUseCase {
	l := logger.With().Str("component", "CredentialUseCase").Logger()
	return &CredentialUseCase{
		gateway: gateway,
		now:     time.Now,
		log:     &l,
	}
}

// Ensure returns a valid token, refreshing the snapshot's shared credential
// first when it is absent or past its expiry. The caller persists the
// snapshot after the transition completes.
func (uc *CredentialUseCase) Ensure(ctx context.Context, snap *model.Snapshot) (string, error) {
	if snap.Shared.Credential.Valid(uc.now()) {
		return snap.Shared.Credential.Token, nil
	}

	tok, err := uc.gateway.IssueToken(ctx)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	snap.Shared.Credential = model.Credential{
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	}
	uc.log.Debug().Int64("expires_at", tok.ExpiresAt).Msg("credential refreshed")
	return tok.Token, nil
}
