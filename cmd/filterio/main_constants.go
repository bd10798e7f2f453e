package main

// Subcommands
const (
	cmdFormats = "formats"
	cmdSave    = "save"
	cmdLoad    = "load"
	cmdExport  = "export"
	cmdImport  = "import"
)

// CLI defaults
const (
	defaultFilterType = "FIR"
	minRequiredArgs   = 1
	fileArgs          = 1
)
