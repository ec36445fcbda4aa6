// Package pagination fetches every page of an offset/limit list resource.
//
// The Seal API returns list results in envelopes carrying the items of one
// page plus the total size of the collection:
//
//	{"items": [...], "meta": {"totalCount": 60}}
//
// A Fetcher requests pages strictly in order, starting at the configured
// offset, and keeps going while totalCount exceeds offset+limit. Items are
// concatenated in page order, so page N always precedes page N+1.
//
// Example usage:
//
//	fetcher, err := pagination.NewFetcher[metadata.Group](sealClient, pagination.DefaultConfig())
//	if err != nil {
//		return err // *pagination.ConfigError
//	}
//	groups, err := fetcher.FetchAll(ctx, contractID)
//
// The fetcher:
//   - Validates offset and limit before issuing any request
//   - Issues ceil((totalCount-offset)/limit) requests for a stable collection
//   - Aborts on the first failed page and returns that page's error as-is
//   - Never retries
package pagination
