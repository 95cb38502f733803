// Package store holds downloaded months and their provenance records
// behind a gocloud.dev blob bucket.
//
// The forcing path from the control file is usually a plain directory;
// Open turns it into a file:// bucket that creates the directory on
// demand and writes bare files (no metadata sidecars). Real bucket URLs
// (s3://, gs://, mem://) pass straight through to their drivers, so the
// same download loop can fill an object store.
//
// The store is append-only from the loop's point of view: month files
// are only ever written once, and skip decisions are made by existence
// checks. Writers commit on Close, never earlier, so an abandoned
// attempt leaves nothing behind.
package store
