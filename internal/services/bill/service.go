package bill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
	"stellarsplit/internal/metrics"
	"stellarsplit/internal/split"
)

// errUnchanged aborts an update that would rewrite identical state.
var errUnchanged = errors.New("unchanged")

// Service is the bill store.
type Service struct {
	repo    domain.BillRepository
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

var _ domain.BillStore = (*Service)(nil)

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator overrides bill id generation.
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// New constructs a bill Service over repo.
func New(repo domain.BillRepository, log *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		repo:    repo,
		log:     log.With("component", "bill"),
		metrics: m,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates in, splits the total across its participants and stores
// the new open bill ahead of all existing ones.
func (s *Service) Create(ctx context.Context, in domain.CreateBillInput) (domain.Bill, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Bill{}, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	creator := domain.Address(strings.TrimSpace(in.CreatorAddress.String()))
	if !crypto.ValidAddress(creator.String()) {
		return domain.Bill{}, fmt.Errorf("%w: creator address %q", domain.ErrInvalidInput, in.CreatorAddress)
	}
	recipient := domain.Address(strings.TrimSpace(in.RecipientAddress.String()))
	if !crypto.ValidAddress(recipient.String()) {
		return domain.Bill{}, fmt.Errorf("%w: recipient address %q", domain.ErrInvalidInput, in.RecipientAddress)
	}
	total, err := domain.ParseAmount(in.TotalAmount)
	if err != nil {
		return domain.Bill{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	participants, err := split.Split(total, in.Participants)
	if err != nil {
		return domain.Bill{}, err
	}

	b := domain.Bill{
		ID:               domain.BillID(s.newID()),
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		TotalAmount:      domain.FormatAmount(total),
		CreatorAddress:   creator,
		RecipientAddress: recipient,
		Participants:     participants,
		CreatedAt:        s.now().UnixMilli(),
		Status:           domain.BillOpen,
	}
	err = s.repo.UpdateBills(ctx, func(bills []domain.Bill) ([]domain.Bill, error) {
		return append([]domain.Bill{b}, bills...), nil
	})
	if err != nil {
		return domain.Bill{}, fmt.Errorf("save bill: %w", err)
	}
	s.metrics.BillCreated()
	s.log.Info("bill created", "bill", b.ID, "participants", len(b.Participants), "total", b.TotalAmount)
	return b, nil
}

// ConfirmPayment marks participant of bill id as paid by hash and recomputes
// the bill status. Every entry with that address is marked, so bills saved
// before duplicates were rejected can still settle. Confirming the same hash
// twice is a no-op; a different hash for an already paid participant fails
// with domain.ErrAlreadyPaid.
func (s *Service) ConfirmPayment(
	ctx context.Context,
	id domain.BillID,
	participant domain.Address,
	hash domain.TxHash,
) (domain.Bill, error) {
	if strings.TrimSpace(hash.String()) == "" {
		return domain.Bill{}, fmt.Errorf("%w: empty transaction hash", domain.ErrInvalidInput)
	}

	var (
		out     domain.Bill
		settled bool
	)
	err := s.repo.UpdateBills(ctx, func(bills []domain.Bill) ([]domain.Bill, error) {
		i := indexOf(bills, id)
		if i < 0 {
			return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
		}
		b := bills[i]
		var unpaid []int
		found := false
		for j, p := range b.Participants {
			if p.Address != participant {
				continue
			}
			found = true
			switch {
			case !p.Paid:
				unpaid = append(unpaid, j)
			case p.TxHash != hash:
				return nil, fmt.Errorf("%w: %s already paid by %s", domain.ErrAlreadyPaid, participant.Short(), p.TxHash)
			}
		}
		if !found {
			return nil, fmt.Errorf("participant %s on bill %s: %w", participant.Short(), id, domain.ErrNotFound)
		}
		if len(unpaid) == 0 {
			out = b
			return nil, errUnchanged
		}

		parts := make([]domain.Participant, len(b.Participants))
		copy(parts, b.Participants)
		for _, j := range unpaid {
			parts[j].Paid = true
			parts[j].TxHash = hash
		}
		b.Participants = parts

		wasSettled := b.Status == domain.BillSettled
		b.Status = domain.BillOpen
		if b.AllPaid() {
			b.Status = domain.BillSettled
		}
		settled = !wasSettled && b.Status == domain.BillSettled

		next := make([]domain.Bill, len(bills))
		copy(next, bills)
		next[i] = b
		out = b
		return next, nil
	})
	if errors.Is(err, errUnchanged) {
		return out, nil
	}
	if err != nil {
		return domain.Bill{}, err
	}
	s.log.Info("payment confirmed", "bill", id, "participant", participant.Short(), "hash", hash)
	if settled {
		s.metrics.BillSettled()
		s.log.Info("bill settled", "bill", id)
	}
	return out, nil
}

// List returns all bills, newest first, as currently persisted.
func (s *Service) List(ctx context.Context) ([]domain.Bill, error) {
	return s.repo.LoadBills(ctx)
}

// Get returns the bill with id.
func (s *Service) Get(ctx context.Context, id domain.BillID) (domain.Bill, error) {
	bills, err := s.repo.LoadBills(ctx)
	if err != nil {
		return domain.Bill{}, err
	}
	i := indexOf(bills, id)
	if i < 0 {
		return domain.Bill{}, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
	}
	return bills[i], nil
}

// Delete removes the bill with id.
func (s *Service) Delete(ctx context.Context, id domain.BillID) error {
	err := s.repo.UpdateBills(ctx, func(bills []domain.Bill) ([]domain.Bill, error) {
		i := indexOf(bills, id)
		if i < 0 {
			return nil, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
		}
		next := make([]domain.Bill, 0, len(bills)-1)
		next = append(next, bills[:i]...)
		return append(next, bills[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.log.Info("bill deleted", "bill", id)
	return nil
}

func indexOf(bills []domain.Bill, id domain.BillID) int {
	for i, b := range bills {
		if b.ID == id {
			return i
		}
	}
	return -1
}
