// Package credentials holds the delegated bearer credential issued by the backend.
//
// # Credential
//
// A [Credential] is an opaque bearer token (a JWT in practice) whose payload embeds the
// streaming provider's own access token under the [ProviderClaim] claim. The provider
// token is derived on every call to [Credential.ProviderToken] and never stored on its own.
//
// Decoding is unverified: the backend owns the signing key and verifies the bearer on
// every request. Failures are returned as [*ConfigurationError], never panics.
//
// # Stores
//
// [Store] is the get/set/clear contract. [SQLiteStore] survives restarts; [MemoryStore]
// backs tests and the fallback path when the database cannot be opened.
//
// # Token Source
//
// [TokenSource] adapts a [Store] to [oauth2.TokenSource] so the playback engine re-reads
// the current credential whenever it needs a provider token.
package credentials
