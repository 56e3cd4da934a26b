package settlement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"stellarsplit/internal/domain"
)

// SettledFunc is notified after a share has been paid and recorded.
type SettledFunc func(id domain.BillID, participant domain.Address, hash domain.TxHash)

// Service is the settlement orchestrator.
type Service struct {
	bills    domain.BillStore
	session  domain.WalletSession
	payments domain.PaymentExecutor
	log      *slog.Logger

	mu        sync.Mutex
	inFlight  map[shareKey]struct{}
	onSettled []SettledFunc
}

type shareKey struct {
	bill        domain.BillID
	participant domain.Address
}

// New constructs a settlement Service.
func New(
	bills domain.BillStore,
	session domain.WalletSession,
	payments domain.PaymentExecutor,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		bills:    bills,
		session:  session,
		payments: payments,
		log:      log.With("component", "settlement"),
		inFlight: make(map[shareKey]struct{}),
	}
}

// OnSettled registers fn to run after every recorded payment.
func (s *Service) OnSettled(fn SettledFunc) {
	s.mu.Lock()
	s.onSettled = append(s.onSettled, fn)
	s.mu.Unlock()
}

// CreateBill creates a bill. A missing creator defaults to the connected
// wallet and a missing recipient to the creator.
func (s *Service) CreateBill(ctx context.Context, in domain.CreateBillInput) (domain.Bill, error) {
	if in.CreatorAddress == "" {
		id, ok := s.session.Identity()
		if !ok {
			return domain.Bill{}, fmt.Errorf("create bill: %w", domain.ErrNotConnected)
		}
		in.CreatorAddress = id.PublicKey
	}
	if in.RecipientAddress == "" {
		in.RecipientAddress = in.CreatorAddress
	}
	return s.bills.Create(ctx, in)
}

// PayShare pays participant's share of bill id from the connected wallet,
// connecting first if needed, and records the result.
func (s *Service) PayShare(
	ctx context.Context,
	id domain.BillID,
	participant domain.Address,
) (domain.SettlementResult, error) {
	b, err := s.bills.Get(ctx, id)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	p, _, ok := b.Participant(participant)
	if !ok {
		return domain.SettlementResult{}, fmt.Errorf("participant %s on bill %s: %w",
			participant.Short(), id, domain.ErrNotFound)
	}
	if p.Paid {
		return domain.SettlementResult{}, fmt.Errorf("%w: %s paid in %s",
			domain.ErrAlreadyPaid, participant.Short(), p.TxHash)
	}
	amount, err := domain.ParseAmount(p.AmountOwed)
	if err != nil {
		return domain.SettlementResult{}, fmt.Errorf("%w: stored share: %v", domain.ErrInvalidInput, err)
	}

	release, err := s.acquire(shareKey{bill: id, participant: participant})
	if err != nil {
		return domain.SettlementResult{}, err
	}
	defer release()

	payer, err := s.session.Connect(ctx)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	res, err := s.payments.Pay(ctx, payer, participant, b.RecipientAddress, amount)
	if err != nil {
		return domain.SettlementResult{}, err
	}

	if _, err := s.bills.ConfirmPayment(ctx, id, participant, res.TxHash); err != nil {
		// The ledger accepted the payment; surface the hash so it can be
		// confirmed by hand.
		s.log.Error("payment submitted but not recorded",
			"bill", id, "participant", participant.Short(), "hash", res.TxHash, "err", err)
		return res, fmt.Errorf("record payment %s: %w", res.TxHash, err)
	}

	s.mu.Lock()
	hooks := append([]SettledFunc(nil), s.onSettled...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(id, participant, res.TxHash)
	}
	s.session.Refresh(ctx)
	return res, nil
}

func (s *Service) acquire(k shareKey) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[k]; busy {
		return nil, fmt.Errorf("%w: %s on bill %s", domain.ErrPaymentInFlight, k.participant.Short(), k.bill)
	}
	s.inFlight[k] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inFlight, k)
		s.mu.Unlock()
	}, nil
}
