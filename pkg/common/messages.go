// Package common provides ambient utilities (logging and the shared
// message strings) used by every vcdtools package.
package common

import (
	"fmt"
	"log"
)

// VerboseMode controls whether LogDebug actually prints.
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output.
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToOpenInput       = "failed to open input file"
	ErrFailedToCreateOutput    = "failed to create output file"
	ErrFailedToWriteSector     = "failed to write sector"
	ErrFailedToReadVolumeConfig = "failed to read volume config"
	ErrTooManyInputFiles       = "too many input files"
	ErrNoInputFiles            = "no input files given"
	ErrOutputAlreadyExists     = "output file already exists"
	ErrTrackTooSmall           = "track has fewer than the minimum required pack payloads"
	ErrDirectoryCountExceeded  = "too many directories for the fixed filesystem plan"
)

// Info messages
const (
	InfoCopyingFile        = "Copying file %s"
	InfoDoneWithFile        = "Done with %s, got %d sectors"
	InfoWroteImage          = "Wrote VCD image: %s (%d sectors)"
	InfoWroteTOC            = "Wrote TOC file: %s"
	InfoOpenedVideoStream   = "Opened MPEG-1 video stream %s"
	InfoOpenedAudioStream   = "Opened MPEG Layer II audio stream %s"
	InfoMuxComplete         = "Multiplex complete: %d sectors, max buffer occupancy %d KB"
)

// Warning messages
const (
	WarnNonStandardAudioBitrate = "audio bitrate is not 224 kbit/s as required by the Video CD standard"
	WarnNonStandardSampleRate   = "audio sample rate is not 44.1 kHz as required by the Video CD standard"
	WarnNonStandardAudioMode    = "audio mode is not stereo as required by the Video CD standard"
	WarnBufferUnderrun          = "video decoder buffer underrun - output may not play correctly"
	WarnInsertedPadding         = "inserted padding sector %d"
)

// Debug messages
const (
	DebugEncodedSector  = "encoded sector lsn=%d mode=%v"
	DebugZeroFilledGap  = "zero-filled sectors [%d,%d)"
	DebugScannedPack    = "scanned pack #%d last_stream_id=0x%02x eof=%v"
)

// LogInfo logs an informational message.
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message.
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message.
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message, only when VerboseMode is enabled.
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context.
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details.
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
