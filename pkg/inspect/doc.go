// Package inspect evaluates rule expressions against decoded slot records.
//
// Three engines are available: expr (github.com/expr-lang/expr), CEL
// (github.com/google/cel-go) and JavaScript (github.com/dop251/goja). Each
// record is exposed to expressions as the variables slot, configured,
// settings, occupied, running, running_settings and data_size, plus now and
// metadata. Functions registered in a FunctionRegistry are callable by name in
// every engine.
package inspect
