// Package storage stores files in S3-compatible object storage.
//
// Uploads detect the MIME type from magic bytes and can be validated before
// they leave the process:
//
//	info, err := storage.PutFile(ctx, s, fh,
//	    storage.WithKey("images/5.png"),
//	    storage.WithValidation(storage.NotEmpty(), storage.MaxSize(5<<20), storage.ImageOnly()),
//	)
//
// Keys can be recovered from the URLs the package generates with KeyFromURL,
// which lets callers keep only URLs in their own records.
package storage
