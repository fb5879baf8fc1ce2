// Package errorcode lists the exit codes of the mvq command.
package errorcode

type Errorcode int

const (
	Success                     Errorcode = 0
	RoundTripFailed             Errorcode = 1
	KeyGenerationFailed         Errorcode = 2
	InvalidCommandLineArguments Errorcode = 3
	FileIOError                 Errorcode = 6
	LogicError                  Errorcode = 7
)
