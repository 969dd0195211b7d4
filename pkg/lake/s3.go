package lake

import (
	"context"
	"fmt"

	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/types"
)

// ConfigureS3Connection creates or replaces the engine-wide "s3_secret"
// used by every subsequent S3-backed attach or import, per spec.md
// §4.4's S3 secret construction rule.
func (l *Lake) ConfigureS3Connection(conn *types.S3Connection) error {
	clause, err := s3CredentialClause(conn)
	if err != nil {
		return err
	}

	urlStyle, useSSL := s3ConnectionOptions(conn)

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE SECRET s3_secret (TYPE s3, REGION '%s'%s, URL_STYLE '%s', USE_SSL %t%s);",
		sqlQuote(conn.Region), clause, urlStyle, useSSL, s3EndpointClause(conn),
	)
	if _, err := l.db.ExecContext(context.Background(), stmt); err != nil {
		return errs.Wrap(errs.ConnectionFailed, "configure s3 secret", err)
	}
	return nil
}

// s3CredentialClause returns the SQL fragment naming how the secret
// obtains credentials: explicit key/secret, or the AWS credential chain.
func s3CredentialClause(conn *types.S3Connection) (string, error) {
	switch conn.AuthMethod {
	case types.S3AuthExplicit:
		keyID, err := conn.AccessKeyID.Plaintext()
		if err != nil {
			return "", errs.Wrap(errs.ConnectionFailed, "s3 access key", err)
		}
		secret, err := conn.SecretAccessKey.Plaintext()
		if err != nil {
			return "", errs.Wrap(errs.ConnectionFailed, "s3 secret key", err)
		}
		return fmt.Sprintf(", KEY_ID '%s', SECRET '%s'", sqlQuote(keyID), sqlQuote(secret)), nil
	case types.S3AuthCredentialChain:
		return ", PROVIDER credential_chain", nil
	default:
		return "", errs.New(errs.BadRequest, "unknown s3 auth method: "+string(conn.AuthMethod))
	}
}

// s3ConnectionOptions decides URL_STYLE/USE_SSL. A local MinIO-style
// endpoint forces path-style addressing and disables TLS; otherwise
// path-style is honored only when explicitly configured.
func s3ConnectionOptions(conn *types.S3Connection) (urlStyle string, useSSL bool) {
	if conn.IsLocalEndpoint() {
		return "path", false
	}
	if conn.PathStyle {
		return "path", true
	}
	return "vhost", true
}

func s3EndpointClause(conn *types.S3Connection) string {
	if conn.Endpoint == "" {
		return ""
	}
	return fmt.Sprintf(", ENDPOINT '%s'", sqlQuote(stripScheme(conn.Endpoint)))
}

func stripScheme(endpoint string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if len(endpoint) > len(scheme) && endpoint[:len(scheme)] == scheme {
			return endpoint[len(scheme):]
		}
	}
	return endpoint
}
