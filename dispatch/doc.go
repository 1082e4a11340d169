// Package dispatch routes an exported entry point to its handler.
//
// A Table is declared once, usually as a package variable, and each exported
// method of the module calls Table.Run with its own name:
//
//	var methods = dispatch.MustNewTable(
//	    dispatch.Func("get", dispatch.String(), dispatch.String(), get),
//	    dispatch.Action("set", dispatch.JSON[setArgs](), set),
//	)
//
//	//go:wasmexport get
//	func exportGet() { methods.Run("get") }
//
// Run reads the call input, decodes it, invokes the handler and hands the
// encoded result to value_return. Any failure on the way aborts the call.
package dispatch
