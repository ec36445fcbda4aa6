// Package store persists fetched contract snapshots in Redis so that other
// processes, such as an overlay renderer, can read the preview markup and
// annotation index without talking to the Seal API.
//
// The store is written explicitly (seal-preview fetch --save) and is never
// consulted by the fetch path itself.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := store.New(redisClient, 24*time.Hour)
//
//	if err := s.Save(ctx, contractID, result); err != nil {
//		return err
//	}
//
//	snap, err := s.Load(ctx, contractID)
//	if errors.Is(err, store.ErrNotFound) {
//		// nothing stored for this contract
//	}
//
// # Keys
//
// Each snapshot occupies three keys written in one pipeline:
//
//	seal:contract:{id}:html
//	seal:contract:{id}:metadata
//	seal:contract:{id}:stored_at
package store
