package domain

import "errors"

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInvalidBranch        = errors.New("branch is required")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrLibraryUnresolved    = errors.New("could not resolve owning library")
	ErrGatewayNotConfigured = errors.New("gateway not connected yet")
	ErrProviderNotFound     = errors.New("unknown payment provider")
	ErrNotGatewayPayment    = errors.New("payment was not made through a gateway")
	ErrNotManualPayment     = errors.New("payment is not a manual payment")
	ErrInvalidType          = errors.New("type must be subscription or fee")
	ErrVerificationFailed   = errors.New("payment verification failed")
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrMissingProof         = errors.New("manual payment requires a transaction reference or proof upload")
	ErrInvalidAction        = errors.New("action must be approve or reject")
	ErrAlreadyFinalized     = errors.New("payment already reached a terminal state")
)
