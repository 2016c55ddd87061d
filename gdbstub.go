// Package gdbstub implements the stub (debuggee) side of the GDB Remote
// Serial Protocol: a Session reads packets off a Connection, decodes them
// with the command package, and drives a target.Target implementation
// through its required and optional capability interfaces.
//
// A typical server loop looks like:
//
//	sess, err := gdbstub.NewBuilder(conn).Build()
//	if err != nil { ... }
//	reason, err := sess.Run(ctx, myTarget)
package gdbstub
