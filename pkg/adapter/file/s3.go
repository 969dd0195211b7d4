package file

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/cuemby/lakebox/pkg/adapter/database"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/lake"
	"github.com/cuemby/lakebox/pkg/types"
)

// s3Adapter lists and reads files from an S3-compatible bucket, using
// the AWS SDK directly for listing (cheap, no engine round-trip) and
// the lake's own httpfs/s3 secret for the actual read_*_auto SQL.
type s3Adapter struct {
	lake *lake.Lake
	cfg  types.AdapterConfig
	conn *types.S3Connection
}

func (a *s3Adapter) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.conn.Region),
	}

	if a.conn.AuthMethod == types.S3AuthExplicit {
		keyID, err := a.conn.AccessKeyID.Plaintext()
		if err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "s3 access key", err)
		}
		secret, err := a.conn.SecretAccessKey.Plaintext()
		if err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "s3 secret key", err)
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ConnectionFailed, "load aws config", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if a.conn.Endpoint != "" {
			o.BaseEndpoint = &a.conn.Endpoint
		}
		o.UsePathStyle = a.conn.PathStyle || a.conn.IsLocalEndpoint()
	}), nil
}

// ListFiles pages list-objects-v2 under the pattern's longest literal
// prefix, then filters client-side by converting the shell pattern to
// an anchored regex.
func (a *s3Adapter) ListFiles(ctx context.Context, pattern string) ([]string, error) {
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}

	prefix := literalPrefix(pattern)
	var keys []string
	var token *string
	for {
		resp, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &a.conn.Bucket,
			Prefix:            &prefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errs.Wrap(errs.ConnectionFailed, "list s3 objects", err)
		}
		for _, obj := range resp.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if resp.NextContinuationToken == nil {
			break
		}
		token = resp.NextContinuationToken
	}

	re, err := patternToRegexp(pattern)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, key := range keys {
		if re.MatchString(key) {
			matches = append(matches, fmt.Sprintf("s3://%s/%s", a.conn.Bucket, key))
		}
	}
	return matches, nil
}

// ImportFiles configures the engine's s3_secret for this connection,
// then materializes destTable the same way the local adapter does.
func (a *s3Adapter) ImportFiles(ctx context.Context, destTable string, files []string) error {
	if len(files) == 0 {
		return nil
	}
	if err := a.lake.ConfigureS3Connection(a.conn); err != nil {
		return err
	}
	query, err := buildImportQuery(a.cfg, files)
	if err != nil {
		return err
	}
	return a.lake.CreateTableFromQuery(ctx, destTable, query)
}

func (a *s3Adapter) GetFileSchema(ctx context.Context, path string) ([]database.ColumnInfo, error) {
	s3Path := path
	if !strings.HasPrefix(s3Path, "s3://") {
		s3Path = fmt.Sprintf("s3://%s/%s", a.conn.Bucket, path)
	}
	if err := a.lake.ConfigureS3Connection(a.conn); err != nil {
		return nil, err
	}
	if a.cfg.Source.File == nil {
		return nil, errs.New(errs.BadRequest, "expected file source")
	}

	tempTable := "temp_schema_check_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	query, err := schemaQuery(a.cfg.Source.File.Format, s3Path, tempTable)
	if err != nil {
		return nil, err
	}
	if err := a.lake.ExecuteBatch(ctx, query); err != nil {
		return nil, err
	}
	defer a.lake.ExecuteBatch(ctx, "DROP TABLE "+tempTable)

	cols, err := a.lake.TableSchema(ctx, tempTable)
	if err != nil {
		return nil, err
	}
	out := make([]database.ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = database.ColumnInfo{Name: c.Name, DataType: c.DataType}
	}
	return out, nil
}

func (a *s3Adapter) ValidateSchema(ctx context.Context, path string, expected []types.ColumnSpec) error {
	actual, err := a.GetFileSchema(ctx, path)
	if err != nil {
		return err
	}
	return validateSchema(path, expected, actual)
}

// literalPrefix returns the longest literal prefix of pattern up to its
// first wildcard character, used to scope list-objects-v2.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?"); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// patternToRegexp converts a shell glob (* and ?) into an anchored regexp.
func patternToRegexp(pattern string) (*regexp.Regexp, error) {
	escaped := strings.ReplaceAll(pattern, ".", `\.`)
	escaped = strings.ReplaceAll(escaped, "*", ".*")
	escaped = strings.ReplaceAll(escaped, "?", ".")
	re, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "compile pattern regexp", err)
	}
	return re, nil
}
