// Package repository implements data access over MySQL.  Sentinel errors
// defined here let higher layers distinguish failure scenarios without
// inspecting SQL driver errors: handlers translate them into specific HTTP
// statuses (404 for the not-found family, 402 for insufficient funds).
package repository

import "errors"

// ErrCourtNotFound is returned when a referenced court does not exist.
var ErrCourtNotFound = errors.New("court not found")

// ErrMemberNotFound is returned when a referenced member does not exist.
var ErrMemberNotFound = errors.New("member not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrInsufficientFunds is returned by the wallet ledger when a debit would
// take a member's balance below zero.  The conditional UPDATE that enforces
// this is atomic, so the balance can never go negative even under
// concurrent debits from the same member.
var ErrInsufficientFunds = errors.New("insufficient funds")
