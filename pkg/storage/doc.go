// Package storage publishes listing documents to decentralized storage and
// reads them back.
//
// # Backends
//
// IPFS (Kubo HTTP API):
//   - Documents are added as a single raw block with CIDv1, so the returned
//     CID is the SHA-256 of the bytes and fetched content is verified
//   - Configured through config.Config.IpfsURL; empty disables publishing
//
// Lighthouse (Filecoin gateway):
//   - Read-only HTTP gateway addressed by CID
//   - Default: https://gateway.lighthouse.storage/ipfs/
//
// # URIs
//
// ReadFile routes by prefix:
//
//	ipfs://bafkrei...      -> IPFS cat
//	filecoin://bafkrei...  -> Lighthouse gateway
//	bafkrei...             -> IPFS cat
//
// # Usage
//
//	client, err := storage.NewClient(cfg.IpfsURL, cfg.LighthouseURL, 30*time.Second)
//	if err != nil {
//		return err
//	}
//	uri, err := client.PublishListing(ctx, listing)
//	...
//	doc, err := client.ReadListing(ctx, uri)
//
// PublishListing clears MetadataURI before upload; ReadListing sets it to the
// URI the document was read from.
package storage
