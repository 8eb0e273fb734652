// Package migrations embeds the goose migration files so both binaries can
// apply them without a filesystem checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
