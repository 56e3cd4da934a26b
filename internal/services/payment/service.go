package payment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"stellarsplit/internal/domain"
	"stellarsplit/internal/metrics"
)

// Service runs payments through the ledger client with signatures from the
// signing agent.
type Service struct {
	ledger     domain.LedgerClient
	agent      domain.SigningAgent
	passphrase string
	log        *slog.Logger
	metrics    *metrics.Metrics
}

var _ domain.PaymentExecutor = (*Service)(nil)

// New constructs a payment Service bound to the network named by passphrase.
func New(
	ledger domain.LedgerClient,
	agent domain.SigningAgent,
	passphrase string,
	log *slog.Logger,
	m *metrics.Metrics,
) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		ledger:     ledger,
		agent:      agent,
		passphrase: passphrase,
		log:        log.With("component", "payment"),
		metrics:    m,
	}
}

// Pay sends amount from the payer to destination on behalf of participant.
//
// The payer must be the participant: a connected wallet can only settle its
// own share. Errors keep their kind (signing rejected, ledger error) so the
// caller can decide whether a fresh attempt makes sense.
func (s *Service) Pay(
	ctx context.Context,
	payer domain.WalletIdentity,
	participant domain.Address,
	destination domain.Address,
	amount decimal.Decimal,
) (domain.SettlementResult, error) {
	if payer.PublicKey != participant {
		return domain.SettlementResult{}, fmt.Errorf("%w: wallet %s, participant %s",
			domain.ErrIdentityMismatch, payer.PublicKey.Short(), participant.Short())
	}

	signer := func(ctx context.Context, envelope string) (string, error) {
		return s.agent.Sign(ctx, envelope, domain.SignOptions{
			NetworkPassphrase: s.passphrase,
			Address:           payer.PublicKey,
		})
	}

	start := time.Now()
	res, err := s.ledger.BuildAndSubmitPayment(ctx, payer.PublicKey, destination, amount, signer)
	s.metrics.ObservePayment(err, time.Since(start))
	if err != nil {
		s.log.Warn("payment failed", "participant", participant.Short(), "err", err)
		return domain.SettlementResult{}, err
	}

	s.log.Info("payment settled", "participant", participant.Short(), "hash", res.Hash)
	return domain.SettlementResult{
		ParticipantAddress: participant,
		TxHash:             res.Hash,
		Success:            res.Success,
		Ledger:             res.Ledger,
	}, nil
}
