package deploy

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/errors"
)

// ObjectStore is the subset of the S3 API the deployer uses.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Summary reports what a deploy did.
type Summary struct {
	Uploaded int
	Pruned   int
}

// Deployer syncs the built output directory to an S3 bucket: every
// local file is uploaded, and remote objects with no local counterpart
// are pruned.
type Deployer struct {
	store ObjectStore
	cfg   config.DeployConfig
	log   *logrus.Entry
}

// New creates a deployer over the given object store.
func New(store ObjectStore, cfg config.DeployConfig) *Deployer {
	return &Deployer{
		store: store,
		cfg:   cfg,
		log:   logrus.WithField("component", "deploy"),
	}
}

// NewClientFromEnv builds an S3 client from AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY.
func NewClientFromEnv(region string) (*s3.Client, error) {
	keyID := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if keyID == "" || secret == "" {
		return nil, errors.New("E401")
	}
	sessionToken := os.Getenv("AWS_SESSION_TOKEN")

	creds := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     keyID,
			SecretAccessKey: secret,
			SessionToken:    sessionToken,
			Source:          "environment",
		}, nil
	})

	return s3.New(s3.Options{
		Region:      region,
		Credentials: creds,
	}), nil
}

// Deploy uploads dir to the bucket and prunes stale remote objects.
func (d *Deployer) Deploy(ctx context.Context, dir string) (Summary, error) {
	files, err := localFiles(dir)
	if err != nil {
		return Summary{}, err
	}
	if len(files) == 0 {
		return Summary{}, errors.New("E403").WithDetail("%s contains no files", dir)
	}

	// Object keys include the configured prefix so prune comparison
	// sees the same namespace the bucket listing does.
	local := make(map[string]string, len(files))
	for rel, path := range files {
		local[d.keyFor(rel)] = path
	}

	var summary Summary

	keys := make([]string, 0, len(local))
	for key := range local {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := local[key]
		if err := d.upload(ctx, key, path); err != nil {
			return summary, err
		}
		summary.Uploaded++
	}

	remote, err := d.remoteKeys(ctx)
	if err != nil {
		return summary, err
	}

	for _, key := range keysToPrune(remote, local) {
		d.log.WithField("key", key).Debug("pruning stale object")
		_, err := d.store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(d.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return summary, errors.New("E402").WithDetail("delete %s", key).Wrap(err)
		}
		summary.Pruned++
	}

	return summary, nil
}

func (d *Deployer) upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.New("E402").WithDetail("open %s", path).Wrap(err)
	}
	defer f.Close()

	d.log.WithField("key", key).Debug("uploading")
	_, err = d.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentTypeFor(path)),
	})
	if err != nil {
		return errors.New("E402").WithDetail("upload %s", key).Wrap(err)
	}
	return nil
}

// remoteKeys lists every object key under the configured prefix.
func (d *Deployer) remoteKeys(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(d.store, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.cfg.Bucket),
		Prefix: aws.String(d.cfg.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.New("E402").WithDetail("list bucket %s", d.cfg.Bucket).Wrap(err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}

	return keys, nil
}

// localFiles maps object keys to local paths for every file under dir.
func localFiles(dir string) (map[string]string, error) {
	files := make(map[string]string)

	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = p
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E403").WithDetail("%s does not exist", dir)
		}
		return nil, err
	}

	return files, nil
}

// keyFor prefixes an output-relative key with the configured prefix.
func (d *Deployer) keyFor(rel string) string {
	if d.cfg.Prefix == "" {
		return rel
	}
	return strings.TrimSuffix(d.cfg.Prefix, "/") + "/" + rel
}

// keysToPrune returns remote keys that no longer exist locally.
func keysToPrune(remote []string, local map[string]string) []string {
	var stale []string
	for _, key := range remote {
		if _, ok := local[key]; !ok {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// contentTypeFor infers a content type from the file extension.
func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
