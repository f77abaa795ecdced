// Package envfile reads and writes line-oriented KEY=VALUE configuration files
// (dotenv format). Values are parsed with godotenv; the package additionally
// keeps the order in which keys first appear so reports and rewritten files
// stay deterministic.
package envfile
