package types

// StorageConfig is the physical location backing the lake's table data.
type StorageConfig struct {
	Local *LocalStorage `yaml:"local,omitempty" json:"local,omitempty"`
	S3    *S3Connection `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// LocalStorage stores table files under a directory on disk.
type LocalStorage struct {
	Path string `yaml:"path" json:"path"`
}

// CatalogKind selects which database backs the lake's metadata catalog.
type CatalogKind string

const (
	CatalogSqlite     CatalogKind = "sqlite"
	CatalogMySql      CatalogKind = "mysql"
	CatalogPostgreSql CatalogKind = "postgresql"
)

// CatalogConfig is the metadata database the lake attaches as its catalog.
type CatalogConfig struct {
	Sqlite     *SqliteConnection     `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	MySql      *MySqlConnection      `yaml:"mysql,omitempty" json:"mysql,omitempty"`
	PostgreSql *PostgreSqlConnection `yaml:"postgresql,omitempty" json:"postgresql,omitempty"`
}

// Kind identifies which variant is populated.
func (c CatalogConfig) Kind() CatalogKind {
	switch {
	case c.MySql != nil:
		return CatalogMySql
	case c.PostgreSql != nil:
		return CatalogPostgreSql
	default:
		return CatalogSqlite
	}
}

// ProjectConfig is the root project.yml: storage backend, catalog
// database, and the named connections other entities reference.
type ProjectConfig struct {
	Storage     StorageConfig               `yaml:"storage" json:"storage"`
	Catalog     CatalogConfig               `yaml:"catalog" json:"catalog"`
	Connections map[string]ConnectionConfig `yaml:"connections" json:"connections"`
}

// AdapterSourceFile describes a file-backed adapter source.
type AdapterSourceFile struct {
	File   FileSourceLocation `yaml:"file" json:"file"`
	Format FileSourceFormat   `yaml:"format" json:"format"`
}

// FileSourceLocation names the file(s) within the connection to read.
type FileSourceLocation struct {
	Path        string `yaml:"path" json:"path"`
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty"`
	MaxBatch    *int   `yaml:"max_batch,omitempty" json:"max_batch,omitempty"`
}

// FileFormatType enumerates the file encodings an adapter may read.
type FileFormatType string

const (
	FormatCSV     FileFormatType = "csv"
	FormatJSON    FileFormatType = "json"
	FormatParquet FileFormatType = "parquet"
)

// FileSourceFormat describes how to parse a file source's bytes.
type FileSourceFormat struct {
	Type      FileFormatType `yaml:"type" json:"type"`
	Delimiter string         `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	NullValue string         `yaml:"null_value,omitempty" json:"null_value,omitempty"`
	HasHeader *bool          `yaml:"has_header,omitempty" json:"has_header,omitempty"`
}

// AdapterSourceDatabase describes a database-table-backed adapter source.
type AdapterSourceDatabase struct {
	TableName string `yaml:"table_name" json:"table_name"`
}

// AdapterSource is the closed sum type over an adapter's origin.
type AdapterSource struct {
	File     *AdapterSourceFile     `yaml:"file,omitempty" json:"file,omitempty"`
	Database *AdapterSourceDatabase `yaml:"database,omitempty" json:"database,omitempty"`
}

// ColumnSpec optionally declares an expected column for schema validation.
type ColumnSpec struct {
	Name     string `yaml:"name" json:"name"`
	DataType string `yaml:"data_type" json:"data_type"`
}

// AdapterConfig binds an external source to a materialized warehouse table.
type AdapterConfig struct {
	ConnectionName string        `yaml:"connection_name" json:"connection_name"`
	Description    string        `yaml:"description,omitempty" json:"description,omitempty"`
	Source         AdapterSource `yaml:"source" json:"source"`
	Columns        []ColumnSpec  `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// ModelConfig is a named SQL transformation materialized as a table.
type ModelConfig struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Sql         string `yaml:"sql" json:"sql"`
}

// QueryConfig is a named, ad-hoc-runnable SQL statement.
type QueryConfig struct {
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Sql         string `yaml:"sql" json:"sql"`
}

// ChartType enumerates the dashboard visualizations supported.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// ChartSpec describes how a dashboard renders its query's result set.
type ChartSpec struct {
	Type    ChartType `yaml:"type" json:"type"`
	XColumn string    `yaml:"x_column" json:"x_column"`
	YColumn string    `yaml:"y_column" json:"y_column"`
}

// DashboardConfig pairs a query with a chart rendering of its result.
type DashboardConfig struct {
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	QueryName   string    `yaml:"query_name" json:"query_name"`
	Chart       ChartSpec `yaml:"chart" json:"chart"`
}
