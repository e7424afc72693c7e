package folio

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// hydrate.js, which turns media and video placeholders into players.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
