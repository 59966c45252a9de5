// Copyright 2025 Certen Protocol

package oracle

import "errors"

// Sentinel errors for the oracle core. Every row of the error-handling
// table maps to at least one of these; callers should compare with errors.Is.
var (
	// ErrNotOwner is returned when an admin operation is invoked by a
	// caller other than the registry owner.
	ErrNotOwner = errors.New("oracle: caller is not the registry owner")

	// ErrAlreadyInitialized is returned by Init when the registry has
	// already been initialized.
	ErrAlreadyInitialized = errors.New("oracle: already initialized")

	// ErrNotInitialized is returned by any operation invoked before Init.
	ErrNotInitialized = errors.New("oracle: registry not initialized")

	// ErrAlreadyMigrated guards Migrate's single-call semantics.
	ErrAlreadyMigrated = errors.New("oracle: migration already performed")

	// ErrResponseTooLarge is returned when responseData exceeds the
	// 4096-byte cap.
	ErrResponseTooLarge = errors.New("oracle: response data exceeds size limit")

	// ErrSourceURLTooLarge is returned when sourceUrl exceeds the
	// 2048-byte cap.
	ErrSourceURLTooLarge = errors.New("oracle: source url exceeds size limit")

	// ErrFutureTimestamp is returned when timestamp is more than 60
	// seconds ahead of the host clock.
	ErrFutureTimestamp = errors.New("oracle: timestamp too far in the future")

	// ErrStaleTimestamp is returned when timestamp is older than the
	// 600-second freshness window.
	ErrStaleTimestamp = errors.New("oracle: timestamp too old")

	// ErrTimestampMismatch is returned when publicSignals[2] does not
	// decimal-encode the submission's own timestamp field.
	ErrTimestampMismatch = errors.New("oracle: public signal timestamp does not match submission timestamp")

	// ErrUnknownNotary is returned when publicSignals[3] does not match
	// any registered notary.
	ErrUnknownNotary = errors.New("oracle: unknown notary")

	// ErrNotaryMissingRawKey is returned when the resolved notary record
	// has no raw public key on file.
	ErrNotaryMissingRawKey = errors.New("oracle: notary has no raw public key on record")

	// ErrReplay is returned when the data commitment has already been
	// consumed by a prior accepted attestation.
	ErrReplay = errors.New("oracle: data commitment already used")

	// ErrInvalidSignature is returned when signature recovery fails
	// outright (malformed signature, high-S, or recovery returning no
	// usable key).
	ErrInvalidSignature = errors.New("oracle: signature recovery failed")

	// ErrSignatureKeyMismatch is returned when the recovered key does not
	// match the notary's registered raw public key.
	ErrSignatureKeyMismatch = errors.New("oracle: recovered key does not match registered notary key")

	// ErrInputLengthMismatch is returned when the verification key's IC
	// array length does not equal len(publicSignals)+1.
	ErrInputLengthMismatch = errors.New("oracle: verification key arity does not match public signal count")

	// ErrInvalidProof is returned when the pairing check rejects the
	// proof.
	ErrInvalidProof = errors.New("oracle: proof failed verification")

	// ErrHostPrimitive is returned when a pairing/MSM/point-sum helper
	// returns malformed output; this indicates a cryptography-library
	// malfunction, not a bad submission.
	ErrHostPrimitive = errors.New("oracle: host cryptographic primitive returned malformed output")

	// ErrNotFound is returned by read queries for a missing id or name.
	ErrNotFound = errors.New("oracle: not found")

	// ErrInvalidArgument is returned for malformed request fields caught
	// before any of the above more specific checks apply (bad hex,
	// wrong-length raw key, empty pubkeyHash).
	ErrInvalidArgument = errors.New("oracle: invalid argument")
)
