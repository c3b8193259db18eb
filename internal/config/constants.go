package config

// SourceFileExt is the canonical extension of Stave source files.
// The core never opens files itself; the extension is shared with the
// driver and the test generator.
const SourceFileExt = ".stv"

// IsTestMode indicates if the compiler is running under the test harness.
// This is set once at startup by the driver.
var IsTestMode = false

// Entry points and reserved block names.
const (
	MainFuncName   = "main"
	EndBlockName   = "end"
	ResumeWordName = "resume"
)

// Generated name prefixes. Closure blocks, instance functions and
// dictionary parameters all derive from a deterministic counter so that
// compilation output is reproducible byte for byte.
const (
	ClosurePrefix    = "fn"
	HandlerPrefix    = "handler"
	ReturnPrefix     = "ret"
	InstancePrefix   = "inst"
	DictParamPrefix  = "dict"
	RecClosurePrefix = "rec"
)

// Built-in effect and type names the inference engine recognizes.
const (
	StateEffectName = "State!"
	RefTypeName     = "Ref"
	BoolTypeName    = "Bool"
	ListTypeName    = "List"
	StringTypeName  = "String"
)
