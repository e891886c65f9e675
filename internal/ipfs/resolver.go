package ipfs

import "strings"

const DefaultGateway = "https://gateway.pinata.cloud"

// Resolve rewrites a stored media reference into a fetchable URL.
// ipfs://CID becomes <gateway>/ipfs/CID; http(s), blob and data URLs
// pass through unchanged; anything else resolves to "".
func Resolve(gateway, ref string) string {
	if ref == "" {
		return ""
	}
	if cid, ok := strings.CutPrefix(ref, "ipfs://"); ok {
		if cid == "" {
			return ""
		}
		if gateway == "" {
			gateway = DefaultGateway
		}
		return strings.TrimRight(gateway, "/") + "/ipfs/" + cid
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "blob:") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return ""
}
