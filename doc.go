// Package session implements the authentication and session-resolution core
// for the Sahaaya community coordination platform (donors, businesses,
// community heads).
//
// The package is organized around a small set of collaborators:
//
//   - Store: the backend session service (sign-in, sign-up, sign-out, current
//     session, auth-state change notifications). LocalStore is a self-hosted
//     implementation backed by a bun accounts table; hosted backends plug in
//     through the same interface.
//   - Resolver: turns an authenticated session into a Profile by querying the
//     profiles table, retrying transport errors once and falling back to
//     session metadata when no row exists yet.
//   - Controller: owns currentUser/isLoading state, refreshes it on start and
//     on every auth-state notification, and exposes Login, Register and
//     Logout. Role changes are projected onto a ThemeFeed observable.
//   - Guard: role-based route gating over the resolved controller state, with
//     go-router middleware and a Fiber adapter.
//   - Recorder: fire-and-forget audit logging through an asynchronous queue
//     with a failure-absorbing consumer.
//
// Login and registration failures surface as rich errors carrying a
// human-readable message; profile resolution failures are absorbed inside the
// controller and only ever manifest as "no current user".
package session
