package redis

const (
	// KeyPrefixCollection is the prefix for collection hashes (id -> JSON record)
	KeyPrefixCollection = "bookmarkd:collection:"
	// KeyPrefixChanges is the prefix for the pub/sub channel announcing collection writes
	KeyPrefixChanges = "bookmarkd:changes:"
)

// CollectionKey returns the Redis hash holding every record of a collection
func CollectionKey(path string) string {
	return KeyPrefixCollection + path
}

// ChangesChannel returns the pub/sub channel notified after each write to a collection
func ChangesChannel(path string) string {
	return KeyPrefixChanges + path
}
