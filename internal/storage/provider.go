package storage

import "seiza/internal/ports"

// Provider is the artifact store contract shared by the api and the
// worker. It aliases ports.StorageProvider to keep call sites simple.
type Provider = ports.StorageProvider
