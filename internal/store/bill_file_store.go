package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"stellarsplit/internal/domain"
)

const lockRetryDelay = 25 * time.Millisecond

// FileBillRepository keeps the bill collection in a single JSON file.
type FileBillRepository struct {
	dir string
	// mu serialises use of lock within the process; one flock handle cannot
	// hold shared and exclusive locks at the same time.
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileBillRepository returns a repository rooted at dir.
func NewFileBillRepository(dir string) *FileBillRepository {
	return &FileBillRepository{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, BillsKey+".lock")),
	}
}

// Path returns the file the collection is written to.
func (r *FileBillRepository) Path() string {
	return filepath.Join(r.dir, BillsKey+".json")
}

// LoadBills reads the collection under a shared lock.
func (r *FileBillRepository) LoadBills(ctx context.Context) ([]domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return nil, err
	}
	ok, err := r.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock bills: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock bills: %w", ctx.Err())
	}
	defer r.lock.Unlock()
	return r.read()
}

// UpdateBills applies fn to the collection under an exclusive lock and
// writes the result back atomically.
func (r *FileBillRepository) UpdateBills(
	ctx context.Context,
	fn func([]domain.Bill) ([]domain.Bill, error),
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}
	ok, err := r.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock bills: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock bills: %w", ctx.Err())
	}
	defer r.lock.Unlock()

	bills, err := r.read()
	if err != nil {
		return err
	}
	next, err := fn(bills)
	if err != nil {
		return err
	}
	b, err := encodeBills(next)
	if err != nil {
		return err
	}
	return writeFile(r.Path(), b, 0o600)
}

func (r *FileBillRepository) read() ([]domain.Bill, error) {
	b, err := readFile(r.Path())
	if err != nil {
		return nil, err
	}
	return decodeBills(b)
}

var _ domain.BillRepository = (*FileBillRepository)(nil)
