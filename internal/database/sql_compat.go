package database

import (
	"fmt"
	"regexp"
	"strings"
)

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// IsMySQL returns true for MySQL/MariaDB driver names.
func IsMySQL(driver string) bool {
	driver = strings.ToLower(driver)
	return driver == "mysql" || driver == "mariadb"
}

// IsPostgreSQL returns true for PostgreSQL driver names.
func IsPostgreSQL(driver string) bool {
	driver = strings.ToLower(driver)
	return driver == "postgres" || driver == "pgx"
}

// ConvertPlaceholders converts ? placeholders to the format required by driver.
//
// IMPORTANT: Only ? placeholders are allowed. Using $N placeholders will panic.
// - For PostgreSQL: ? → $1, $2, ...
// - For MySQL and SQLite: ? passed through as-is
//
// Example:
//
//	query := database.ConvertPlaceholders(db.DriverName(), "SELECT * FROM t WHERE a = ? AND b = ?")
func ConvertPlaceholders(driver, query string) string {
	if dollarPlaceholder.MatchString(query) {
		panic(fmt.Sprintf("ConvertPlaceholders: $N placeholders are not allowed. Use ? placeholders instead.\nQuery: %s", query))
	}

	if !IsPostgreSQL(driver) || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	n := 1
	for _, c := range query {
		if c == '?' {
			fmt.Fprintf(&b, "$%d", n)
			n++
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// QuoteIdentifier quotes table/column names based on driver.
func QuoteIdentifier(driver, name string) string {
	if IsMySQL(driver) {
		return fmt.Sprintf("`%s`", name)
	}
	return name
}
