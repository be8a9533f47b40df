package web

import "embed"

// StaticFS holds the embedded stylesheet of the status page.
//
//go:embed static/*
var StaticFS embed.FS
