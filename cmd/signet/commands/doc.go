// Package commands implements the signet CLI: bootstrap a signed API
// session, inspect credential state, make signed calls, and log out.
package commands
