// Package account manages marketplace users, keyed by wallet address, and
// the signed access proof a wallet presents to a provider endpoint.
package account
