package config

import (
	"fmt"
	"os"
)

// validate runs spec.md §4.2's advisory checks: issues found here are
// logged as warnings and never block Load.
func (c *Config) validate() []string {
	var warnings []string

	hasEncrypted := false
	for _, conn := range c.Project.Connections {
		for _, f := range conn.SecretFields() {
			if f.IsEncrypted() {
				hasEncrypted = true
			}
		}
	}
	if hasEncrypted {
		if _, err := os.Stat(keyPathFor(c.ProjectDir)); err != nil {
			warnings = append(warnings, fmt.Sprintf("project has encrypted credential fields but no key file at %s", keyPathFor(c.ProjectDir)))
		}
	}

	for name, conn := range c.Project.Connections {
		switch {
		case conn.S3 != nil && conn.S3.Bucket == "":
			warnings = append(warnings, fmt.Sprintf("connection %q: s3 bucket is empty", name))
		case conn.MySql != nil && conn.MySql.Host == "":
			warnings = append(warnings, fmt.Sprintf("connection %q: mysql host is empty", name))
		case conn.PostgreSql != nil && conn.PostgreSql.Host == "":
			warnings = append(warnings, fmt.Sprintf("connection %q: postgresql host is empty", name))
		case conn.LocalFile != nil:
			if _, err := os.Stat(conn.LocalFile.BasePath); err != nil {
				warnings = append(warnings, fmt.Sprintf("connection %q: local path %s does not exist", name, conn.LocalFile.BasePath))
			}
		}
	}

	return warnings
}

func keyPathFor(projectDir string) string {
	return projectDir + string(os.PathSeparator) + ".secret.key"
}
