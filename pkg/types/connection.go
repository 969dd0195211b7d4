package types

import "fmt"

// ConnectionConfig is a named source of data: a filesystem, an object
// store bucket, or a relational database. It is a closed sum type —
// exactly one of the pointer fields below is set, mirroring the way
// spec.md describes "connection variants".
type ConnectionConfig struct {
	LocalFile  *LocalFileConnection  `yaml:"local_file,omitempty" json:"local_file,omitempty"`
	S3         *S3Connection         `yaml:"s3,omitempty" json:"s3,omitempty"`
	Sqlite     *SqliteConnection     `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	MySql      *MySqlConnection      `yaml:"mysql,omitempty" json:"mysql,omitempty"`
	PostgreSql *PostgreSqlConnection `yaml:"postgresql,omitempty" json:"postgresql,omitempty"`
}

// Kind identifies which variant is populated.
func (c ConnectionConfig) Kind() string {
	switch {
	case c.LocalFile != nil:
		return "local_file"
	case c.S3 != nil:
		return "s3"
	case c.Sqlite != nil:
		return "sqlite"
	case c.MySql != nil:
		return "mysql"
	case c.PostgreSql != nil:
		return "postgresql"
	default:
		return "unknown"
	}
}

// LocalFileConnection resolves adapter file patterns against a base
// directory on disk.
type LocalFileConnection struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3AuthMethod selects how credentials are supplied to the object store.
type S3AuthMethod string

const (
	S3AuthExplicit        S3AuthMethod = "explicit"
	S3AuthCredentialChain S3AuthMethod = "credential_chain"
)

// S3Connection describes an S3-compatible object store bucket.
type S3Connection struct {
	Bucket          string       `yaml:"bucket" json:"bucket"`
	Region          string       `yaml:"region" json:"region"`
	Endpoint        string       `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AuthMethod      S3AuthMethod `yaml:"auth_method" json:"auth_method"`
	AccessKeyID     SecretField  `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey SecretField  `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
	PathStyle       bool         `yaml:"path_style" json:"path_style"`
}

// IsLocalEndpoint reports whether Endpoint points at a local MinIO-style
// gateway (localhost/127.0.0.1), per spec.md's S3 secret construction rule.
func (c *S3Connection) IsLocalEndpoint() bool {
	if c == nil || c.Endpoint == "" {
		return false
	}
	host := c.Endpoint
	for _, scheme := range []string{"https://", "http://"} {
		if len(host) > len(scheme) && host[:len(scheme)] == scheme {
			host = host[len(scheme):]
		}
	}
	if i := indexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if i := indexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host == "localhost" || host == "127.0.0.1"
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// SqliteConnection points at a local SQLite database file.
type SqliteConnection struct {
	Path string `yaml:"path" json:"path"`
}

// MySqlConnection describes a remote MySQL database.
type MySqlConnection struct {
	Host     string      `yaml:"host" json:"host"`
	Port     int         `yaml:"port" json:"port"`
	Db       string      `yaml:"db" json:"db"`
	User     string      `yaml:"user" json:"user"`
	Password SecretField `yaml:"password" json:"password"`
}

// DSN returns the database/sql data source name for the go-sql-driver/mysql driver.
func (c *MySqlConnection) DSN(password string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", c.User, password, c.Host, c.Port, c.Db)
}

// PostgreSqlConnection describes a remote PostgreSQL database.
type PostgreSqlConnection struct {
	Host     string      `yaml:"host" json:"host"`
	Port     int         `yaml:"port" json:"port"`
	Db       string      `yaml:"db" json:"db"`
	User     string      `yaml:"user" json:"user"`
	Password SecretField `yaml:"password" json:"password"`
	SslMode  string      `yaml:"ssl_mode,omitempty" json:"ssl_mode,omitempty"`
}

// DSN returns the database/sql data source name for jackc/pgx's stdlib driver.
func (c *PostgreSqlConnection) DSN(password string) string {
	sslMode := c.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, password, c.Host, c.Port, c.Db, sslMode)
}

// SecretFields returns every SecretField embedded in this connection, for
// the vault to encrypt/decrypt in bulk on config load/save.
func (c *ConnectionConfig) SecretFields() []*SecretField {
	var fields []*SecretField
	if c.S3 != nil {
		fields = append(fields, &c.S3.AccessKeyID, &c.S3.SecretAccessKey)
	}
	if c.MySql != nil {
		fields = append(fields, &c.MySql.Password)
	}
	if c.PostgreSql != nil {
		fields = append(fields, &c.PostgreSql.Password)
	}
	return fields
}

// Clone returns a copy of c whose populated variant sub-struct is its
// own allocation, so mutating a SecretField on the clone (e.g.
// encrypting it for an on-disk write) never touches c's own fields.
func (c ConnectionConfig) Clone() ConnectionConfig {
	if c.LocalFile != nil {
		v := *c.LocalFile
		c.LocalFile = &v
	}
	if c.S3 != nil {
		v := *c.S3
		c.S3 = &v
	}
	if c.Sqlite != nil {
		v := *c.Sqlite
		c.Sqlite = &v
	}
	if c.MySql != nil {
		v := *c.MySql
		c.MySql = &v
	}
	if c.PostgreSql != nil {
		v := *c.PostgreSql
		c.PostgreSql = &v
	}
	return c
}
