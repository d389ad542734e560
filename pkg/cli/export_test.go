package cli

var GetIndexConfig = getIndexConfig

var (
	PrintCases      = printCases
	PrintSOAPNote   = printSOAPNote
	FormatElapsed   = formatElapsed
	Tail            = tail
	NewTerminalSink = newTerminalSink
)

var MigrateFirestore = migrateFirestore
