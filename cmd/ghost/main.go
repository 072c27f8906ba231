// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ghost is the Relational Ghost CLI and HTTP server.
//
// # Commands
//
//   - serve: run the HTTP API
//   - simulate: run one simulation locally
//   - scan: list boundary breaches in a script
//   - stress: show the current system stress reading
//   - schema: print the JSON schema of a simulate request
//
// # Configuration
//
// ghost.yaml is read from the working directory or ~/.ghost, or from
// --config. Every key can be set from the environment with the GHOST_
// prefix, e.g. GHOST_DRIFT_BACKEND=badger.
//
// # Usage
//
//	ghost simulate --persona avoidant --intensity 80 "You never listen to me"
//	ghost scan --file draft.txt
//	ghost serve
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
