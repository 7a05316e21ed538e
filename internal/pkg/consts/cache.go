package consts

import "time"

// Cache namespaces. Keys are <namespace>:<identifier>.
const (
	CacheNamespaceScore       = "score"
	CacheNamespaceBorrower    = "borrower"
	CacheNamespaceEligibility = "eligibility"
	CacheNamespaceLoan        = "loan"
	CacheNamespaceNetwork     = "network"
)

// Per-namespace TTLs. Volatile data gets the short TTL, stable profile data
// the longer one. Eligibility results are memory-only (derived from a live
// quote) and are never written to the persistent tier.
const (
	CacheTTLVolatile = 60 * time.Second
	CacheTTLStable   = 5 * time.Minute

	CacheSweepInterval = 5 * time.Minute
)

// NamespaceTTL returns the TTL used when a caller does not pass one.
func NamespaceTTL(namespace string) time.Duration {
	switch namespace {
	case CacheNamespaceBorrower, CacheNamespaceLoan:
		return CacheTTLStable
	default:
		return CacheTTLVolatile
	}
}

// MemoryOnlyNamespace reports whether entries of a namespace must stay out of
// the persistent tier.
func MemoryOnlyNamespace(namespace string) bool {
	return namespace == CacheNamespaceEligibility
}
