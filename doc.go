// Package accounts implements an account subsystem: registration, login,
// profile projection and update, password change, and logout via refresh
// token revocation.
//
// Structure:
//   - Account is the persisted identity record, stored via Bun with unique
//     constraints on email and username so concurrent duplicate registrations
//     resolve at the store rather than through a check-then-insert race.
//   - AccountService holds every business rule. It takes explicit identity
//     parameters on each call; there is no ambient current-user state.
//   - TokenService mints HS256 access/refresh pairs and validates them.
//     Refresh tokens carry a jti and can be revoked through a persistent
//     blacklist; a password change cuts off every previously issued refresh
//     token.
//   - AccountController exposes the operations over go-router as a JSON API,
//     with jwtware guarding the authenticated routes.
package accounts
