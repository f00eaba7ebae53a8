// Package graft patches the machine code of its own process.
//
// It exists for instrumentation tools that load into a host process and
// overwrite instruction bytes inside a module there: describe the target
// as offsets from the module base, declare a checksum of the bytes that
// should already be there, and write the replacement. Installs hand back
// a handle that puts the original bytes back. Replacements that are code
// can be compiled in place, from a plain byte copy up to a call stub
// with trap-guarded padding.
//
// Limitations:
//   - Only supports amd64 on Linux or Windows
//   - Nothing synchronizes patching with other threads executing the
//     same bytes; patch at a quiescent point, such as process attach
//   - Hook targets must stay resident for as long as a patched call
//     site can reach them
//   - Offsets and checksums come from the caller; the engine verifies
//     the mechanics of a write, never that the target means what the
//     caller thinks it means
package graft
