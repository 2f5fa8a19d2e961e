// Package migrations embeds the versioned SQL schema applied by the admin migrate command.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
