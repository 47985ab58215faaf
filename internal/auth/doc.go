// Package auth issues and verifies NeuroAIR link tokens.
//
// Smart-home platforms and dashboard clients authenticate with a signed
// HS256 JWT issued once, when the platform account is linked. Tokens
// carry a role and, for platforms, the platform they were issued to:
//
//	platform  voice dispatch, state read and device operation, limited
//	          to its own platform endpoint
//	operator  state read, device operation, voice dispatch, history read
//	admin     everything operator can do plus system administration
//
// Tokens are issued with the neuroair-token command and checked by the
// API middleware without a database lookup.
package auth
