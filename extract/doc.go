// Package extract turns a free-text season strategy description into typed
// season parameters. Providers force a single structured tool call so the
// model's answer arrives as JSON against a fixed schema instead of prose;
// the result is still re-validated locally, because the model output is
// untrusted input like any other.
package extract
