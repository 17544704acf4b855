// File: internal/provider/providers.go
package provider

// Importing this package registers every storage backend with the registry.
// A new backend lives in pkg/storage/<name>, registers itself in init(), and is added here.

import (
	_ "terrable/pkg/storage/aws"
	_ "terrable/pkg/storage/gcp"
	_ "terrable/pkg/storage/minio"
)
