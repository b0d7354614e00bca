// Package deploy publishes the built output directory to an S3 bucket.
//
// Deploys are a full sync: every local file is uploaded with a content
// type inferred from its extension, then remote objects under the
// configured prefix that have no local counterpart are pruned.
package deploy
