package remote

import _ "embed"

// Schema is the SQL that creates the ideas table and its row-level policies
//
//go:embed schema.sql
var Schema string
