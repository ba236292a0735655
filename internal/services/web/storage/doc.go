// Package storage declares persistence contracts for web-owned state.
//
// The web service owns its local accounts, passkey credentials, ceremony
// sessions, signed-in sessions, phone challenges and invite validation
// receipts. Profile data that the remote API owns is never persisted here.
package storage
