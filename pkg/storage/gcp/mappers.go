// File: pkg/storage/gcp/mappers.go
package gcp

import (
	"errors"
	"fmt"
	"net/http"

	"terrable/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// Maps GCP SDK object attributes to the domain model
func mapObjectAttributes(attrs *gcpstorage.ObjectAttrs) storage.Object {
	if attrs == nil {
		return storage.Object{}
	}

	return storage.Object{
		Key:          attrs.Name,
		Size:         attrs.Size,
		LastModified: attrs.Updated.UTC(),
		ContentType:  attrs.ContentType,
		Metadata:     attrs.Metadata,
	}
}

// Translates SDK errors into the storage sentinels, keeping the original error in the chain
func mapError(err error, bucketName, key string) error {
	if errors.Is(err, gcpstorage.ErrObjectNotExist) {
		return fmt.Errorf("gs://%s/%s: %w: %w", bucketName, key, storage.ErrObjectNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("gs://%s/%s: %w: %w", bucketName, key, storage.ErrObjectNotFound, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("gs://%s/%s: %w: %w", bucketName, key, storage.ErrAccessDenied, err)
		}
	}

	return fmt.Errorf("gs://%s/%s: %w", bucketName, key, err)
}
