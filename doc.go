// Package auth provides an authentication and token lifecycle engine (user
// registration, credential login, JWT issuance, a persisted token ledger,
// HTTP helpers) plus a bearer validation middleware for route protection.
//
// Token lifecycle:
//   - Every issued access token is recorded in the ledger with revoked and
//     expired flags. A successful login revokes all of the user's live
//     records before the new pair is minted, inside one transaction, so the
//     newest login is the only one with live credentials.
//   - Refresh tokens are stateless: the codec alone bounds their validity
//     through signature and expiry, the ledger never records them.
//
// Lockout:
//   - LockoutPolicy counts consecutive failed logins per account and flips
//     the locked flag at the threshold. Locked accounts are rejected before
//     the password is verified, and only an explicit Unlock clears the flag.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the engine and
//     the user provider to describe registration, login, lockout, and logout
//     events. Sinks run best-effort (errors are logged) so you can forward
//     to a database or queue without blocking authentication.
package auth
