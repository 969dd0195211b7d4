// Package scaffold seeds a freshly created project with a runnable
// example: sample CSV/JSON/SQLite source data, connections pointing at
// it, adapters that ingest it, models and queries that transform it,
// and dashboards that chart the result — so `lakebox new` produces
// something a user can immediately run end to end instead of an empty
// project.yml.
package scaffold

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/cuemby/lakebox/pkg/config"
	"github.com/cuemby/lakebox/pkg/errs"
	"github.com/cuemby/lakebox/pkg/graph"
	"github.com/cuemby/lakebox/pkg/types"
)

const sampleDataDir = "sample_data"

// CreateSampleProject populates cfg's project directory with a worked
// example: a users.csv, three app_log_*.json files, and a SQLite
// app.db with products/orders tables, wired up through connections,
// adapters, models, queries, dashboards and the dependency graph.
func CreateSampleProject(cfg *config.Config, g *graph.Graph) error {
	if err := writeSampleData(cfg.ProjectDir); err != nil {
		return err
	}
	if err := createSampleConnections(cfg); err != nil {
		return err
	}
	if err := createSampleAdapters(cfg); err != nil {
		return err
	}
	if err := createSampleModels(cfg); err != nil {
		return err
	}
	if err := createSampleQueries(cfg); err != nil {
		return err
	}
	if err := createSampleDashboards(cfg); err != nil {
		return err
	}
	if err := createSampleGraph(cfg, g); err != nil {
		return err
	}
	return nil
}

func writeSampleData(projectDir string) error {
	dir := filepath.Join(projectDir, sampleDataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.IoFailure, "create sample_data", err)
	}

	files := map[string]string{
		"users.csv":      usersCSV,
		"app_log_1.json": appLog1JSON,
		"app_log_2.json": appLog2JSON,
		"app_log_3.json": appLog3JSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return errs.Wrap(errs.IoFailure, "write "+name, err)
		}
	}

	return writeSampleDatabase(filepath.Join(dir, "app.db"))
}

func writeSampleDatabase(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errs.Wrap(errs.IoFailure, "open sample database", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE products (
			product_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			price REAL NOT NULL,
			stock INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`INSERT INTO products (product_id, name, category, price, stock, created_at) VALUES
			(1, 'Laptop Pro', 'Electronics', 1299.99, 50, '2024-01-01'),
			(2, 'Wireless Mouse', 'Electronics', 29.99, 200, '2024-01-02'),
			(3, 'Office Chair', 'Furniture', 399.99, 75, '2024-01-03'),
			(4, 'Standing Desk', 'Furniture', 599.99, 40, '2024-01-04'),
			(5, 'USB-C Hub', 'Electronics', 49.99, 150, '2024-01-05'),
			(6, 'Monitor 27inch', 'Electronics', 349.99, 80, '2024-01-06'),
			(7, 'Desk Lamp', 'Furniture', 79.99, 120, '2024-01-07'),
			(8, 'Keyboard Mechanical', 'Electronics', 149.99, 90, '2024-01-08'),
			(9, 'Webcam HD', 'Electronics', 89.99, 110, '2024-01-09'),
			(10, 'Notebook Set', 'Stationery', 19.99, 300, '2024-01-10')`,
		`CREATE TABLE orders (
			order_id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			total_amount REAL NOT NULL,
			order_date TEXT NOT NULL,
			status TEXT NOT NULL
		)`,
		`INSERT INTO orders (order_id, user_id, product_id, quantity, total_amount, order_date, status) VALUES
			(1, 1, 1, 1, 1299.99, '2024-03-01', 'completed'),
			(2, 2, 2, 2, 59.98, '2024-03-01', 'completed'),
			(3, 3, 5, 1, 49.99, '2024-03-02', 'processing'),
			(4, 5, 4, 1, 599.99, '2024-03-02', 'completed'),
			(5, 7, 6, 1, 349.99, '2024-03-03', 'shipped'),
			(6, 8, 3, 2, 799.98, '2024-03-03', 'completed'),
			(7, 1, 8, 1, 149.99, '2024-03-04', 'processing'),
			(8, 4, 7, 3, 239.97, '2024-03-04', 'completed'),
			(9, 6, 9, 1, 89.99, '2024-03-05', 'shipped'),
			(10, 10, 10, 5, 99.95, '2024-03-05', 'completed')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return errs.Wrap(errs.IoFailure, "seed sample database", err)
		}
	}
	return nil
}

func createSampleConnections(cfg *config.Config) error {
	for name, conn := range map[string]types.ConnectionConfig{
		"local_files": {LocalFile: &types.LocalFileConnection{BasePath: "./" + sampleDataDir}},
		"sample_db":   {Sqlite: &types.SqliteConnection{Path: "./" + sampleDataDir + "/app.db"}},
	} {
		handle, err := cfg.UpsertConnection(name, conn)
		if err != nil {
			return err
		}
		if err := handle.Save(); err != nil {
			return err
		}
	}
	return nil
}

func createSampleAdapters(cfg *config.Config) error {
	hasHeader := true
	adapters := map[string]types.AdapterConfig{
		"users": {
			ConnectionName: "local_files",
			Description:    "User data from CSV file",
			Source: types.AdapterSource{File: &types.AdapterSourceFile{
				File:   types.FileSourceLocation{Path: "users.csv"},
				Format: types.FileSourceFormat{Type: types.FormatCSV, Delimiter: ",", HasHeader: &hasHeader},
			}},
		},
		"app_logs": {
			ConnectionName: "local_files",
			Description:    "Application logs from JSON files",
			Source: types.AdapterSource{File: &types.AdapterSourceFile{
				File:   types.FileSourceLocation{Path: "app_log_*.json"},
				Format: types.FileSourceFormat{Type: types.FormatJSON},
			}},
		},
		"products": {
			ConnectionName: "sample_db",
			Description:    "Product data from database",
			Source:         types.AdapterSource{Database: &types.AdapterSourceDatabase{TableName: "products"}},
		},
		"orders": {
			ConnectionName: "sample_db",
			Description:    "Order data from database",
			Source:         types.AdapterSource{Database: &types.AdapterSourceDatabase{TableName: "orders"}},
		},
	}
	for name, a := range adapters {
		handle, err := cfg.UpsertAdapter(name, a)
		if err != nil {
			return err
		}
		if err := handle.Save(); err != nil {
			return err
		}
	}
	return nil
}

func createSampleModels(cfg *config.Config) error {
	models := map[string]types.ModelConfig{
		"staging_app_logs": {
			Description: "Cleaned application logs",
			Sql: `SELECT
    CAST(timestamp AS DATETIME) as event_time,
    user_id,
    action,
    device,
    duration,
    DATE(timestamp) as event_date
FROM app_logs
WHERE duration > 0`,
		},
		"user_activity_summary": {
			Description: "User activity summary",
			Sql: `SELECT
    u.user_id,
    u.name,
    u.email,
    COUNT(DISTINCT l.event_date) as active_days,
    COUNT(l.action) as total_actions,
    AVG(l.duration) as avg_duration,
    MAX(l.event_time) as last_activity
FROM users u
LEFT JOIN staging_app_logs l ON u.user_id = l.user_id
GROUP BY u.user_id, u.name, u.email`,
		},
		"product_performance": {
			Description: "Product performance metrics",
			Sql: `SELECT
    p.product_id,
    p.name as product_name,
    p.category,
    p.price,
    p.stock,
    COUNT(o.order_id) as order_count,
    SUM(o.quantity) as total_quantity_sold,
    SUM(o.total_amount) as total_revenue,
    AVG(o.total_amount) as avg_order_value
FROM products p
LEFT JOIN orders o ON p.product_id = o.product_id
GROUP BY p.product_id, p.name, p.category, p.price, p.stock
ORDER BY total_revenue DESC`,
		},
	}
	for name, m := range models {
		handle, err := cfg.UpsertModel(name, m)
		if err != nil {
			return err
		}
		if err := handle.Save(); err != nil {
			return err
		}
	}
	return nil
}

func createSampleQueries(cfg *config.Config) error {
	queries := map[string]types.QueryConfig{
		"top_products": {
			Description: "Top 5 products by revenue",
			Sql: `SELECT
    product_name,
    category,
    total_revenue,
    order_count
FROM product_performance
ORDER BY total_revenue DESC
LIMIT 5`,
		},
		"active_users": {
			Description: "Most active users by action count",
			Sql: `SELECT
    name,
    email,
    total_actions,
    active_days,
    ROUND(avg_duration, 2) as avg_duration_seconds
FROM user_activity_summary
WHERE total_actions > 0
ORDER BY total_actions DESC
LIMIT 10`,
		},
		"revenue_trend": {
			Description: "Daily revenue trend query",
			Sql: `SELECT
    DATE(order_date) as date,
    SUM(total_amount) as daily_revenue
FROM orders
WHERE status = 'completed'
GROUP BY DATE(order_date)
ORDER BY date`,
		},
		"category_distribution": {
			Description: "Product sales by category query",
			Sql: `SELECT
    category,
    SUM(total_quantity_sold) as units_sold
FROM product_performance
GROUP BY category
ORDER BY units_sold DESC`,
		},
	}
	for name, q := range queries {
		handle, err := cfg.UpsertQuery(name, q)
		if err != nil {
			return err
		}
		if err := handle.Save(); err != nil {
			return err
		}
	}
	return nil
}

func createSampleDashboards(cfg *config.Config) error {
	dashboards := map[string]types.DashboardConfig{
		"revenue_trend": {
			Description: "Daily Revenue Trend",
			QueryName:   "revenue_trend",
			Chart:       types.ChartSpec{Type: types.ChartLine, XColumn: "date", YColumn: "daily_revenue"},
		},
		"category_distribution": {
			Description: "Product Sales by Category",
			QueryName:   "category_distribution",
			Chart:       types.ChartSpec{Type: types.ChartBar, XColumn: "category", YColumn: "units_sold"},
		},
	}
	for name, d := range dashboards {
		handle, err := cfg.UpsertDashboard(name, d)
		if err != nil {
			return err
		}
		if err := handle.Save(); err != nil {
			return err
		}
	}
	return nil
}

// createSampleGraph derives nodes the way the HTTP create handlers do
// (adapters as roots, models' dependencies parsed from SQL) so the freshly
// scaffolded project's .data/metadata.json agrees with its YAML from
// the moment `new` returns, without waiting for a first pipeline run.
func createSampleGraph(cfg *config.Config, g *graph.Graph) error {
	for name := range cfg.ListAdapters() {
		if !g.HasNode(name) {
			if err := g.CreateNode(name, nil); err != nil {
				return err
			}
		}
	}
	for name, m := range cfg.ListModels() {
		deps, err := graph.DependentTables(m.Sql)
		if err != nil {
			return errs.Wrap(errs.BadRequest, "parse sample model "+name, err)
		}
		if !g.HasNode(name) {
			if err := g.CreateNode(name, deps); err != nil {
				return err
			}
		}
	}
	return g.Save()
}
