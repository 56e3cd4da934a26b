package domain

import (
	interfaces "stellarsplit/internal/domain/interfaces"
	types "stellarsplit/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Address          = types.Address
	BillID           = types.BillID
	TxHash           = types.TxHash
	NetworkID        = types.NetworkID
	BillStatus       = types.BillStatus
	Participant      = types.Participant
	Bill             = types.Bill
	ParticipantInput = types.ParticipantInput
	CreateBillInput  = types.CreateBillInput
	WalletIdentity   = types.WalletIdentity
	SessionState     = types.SessionState
	SessionSnapshot  = types.SessionSnapshot
	BalanceState     = types.BalanceState
	Balance          = types.Balance
	SubmitResult     = types.SubmitResult
	SignOptions      = types.SignOptions
	SettlementResult = types.SettlementResult
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	BillRepository  = interfaces.BillRepository
	KeyStore        = interfaces.KeyStore
	Signer          = interfaces.Signer
	LedgerClient    = interfaces.LedgerClient
	SigningAgent    = interfaces.SigningAgent
	WalletSession   = interfaces.WalletSession
	PaymentExecutor = interfaces.PaymentExecutor
	BillStore       = interfaces.BillStore
)

const (
	BillOpen    = types.BillOpen
	BillSettled = types.BillSettled

	SessionDisconnected = types.SessionDisconnected
	SessionConnecting   = types.SessionConnecting
	SessionConnected    = types.SessionConnected

	BalanceUnknown = types.BalanceUnknown
	BalanceKnown   = types.BalanceKnown
	BalanceFailed  = types.BalanceFailed

	AmountPrecision = types.AmountPrecision
)

// Amount helpers re-exported from the types subpackage.
var (
	ParseAmount    = types.ParseAmount
	FormatAmount   = types.FormatAmount
	ToStroops      = types.ToStroops
	FromStroops    = types.FromStroops
	MaxAmount      = types.MaxAmount
	KnownBalance   = types.KnownBalance
	UnknownBalance = types.UnknownBalance
	FailedBalance  = types.FailedBalance
)
