// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the DbLogger
// binaries.
//
// A configuration file is named by the --config flag or, failing
// that, the DBLOGGER_CONFIG environment variable ([Resolve]). With
// neither, [Default] applies: a file sink under ~/.cache/dblogger/logs
// and a pipe socket in the user's runtime directory. There is no
// search path and no per-field environment override; what the file
// says is what runs.
//
// The file may carry "development" and "production" sections that
// are merged over the base values when [Config].Environment matches.
// Only keys present in the section are changed. A production config
// without a production section gets JSON logging.
//
// After overrides, ${HOME}, ${DBLOGGER_ROOT}, and ${VAR:-default}
// patterns in path fields are expanded.
//
// Durations are written as Go duration strings ("3s", "100ms") and
// checked by [Config.Validate].
package config
