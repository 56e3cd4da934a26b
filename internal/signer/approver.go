package signer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// SignSummary is what the user is asked to approve.
type SignSummary struct {
	Network     string
	Source      string
	Destination string
	Amount      string
	Memo        string
}

// Approver decides on access and signature requests.
type Approver interface {
	ApproveAccess(ctx context.Context, origin string) bool
	ApproveSign(ctx context.Context, s SignSummary) bool
}

// AutoApprover approves everything.
type AutoApprover struct{}

func (AutoApprover) ApproveAccess(context.Context, string) bool { return true }
func (AutoApprover) ApproveSign(context.Context, SignSummary) bool { return true }

// DenyApprover declines everything.
type DenyApprover struct{}

func (DenyApprover) ApproveAccess(context.Context, string) bool { return false }
func (DenyApprover) ApproveSign(context.Context, SignSummary) bool { return false }

// PromptApprover asks on a terminal. Requests are serialised so prompts never
// interleave.
type PromptApprover struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPromptApprover reads answers from in and writes prompts to out.
func NewPromptApprover(in io.Reader, out io.Writer) *PromptApprover {
	return &PromptApprover{in: bufio.NewReader(in), out: out}
}

func (p *PromptApprover) ApproveAccess(ctx context.Context, origin string) bool {
	if origin == "" {
		origin = "local client"
	}
	return p.ask(ctx, fmt.Sprintf("Allow %s to read your address?", origin))
}

func (p *PromptApprover) ApproveSign(ctx context.Context, s SignSummary) bool {
	q := fmt.Sprintf("Sign payment of %s XLM to %s on %s (memo %q)?", s.Amount, s.Destination, s.Network, s.Memo)
	return p.ask(ctx, q)
}

func (p *PromptApprover) ask(ctx context.Context, q string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", q)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
