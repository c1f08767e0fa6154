package models

import "fmt"

// Label is the prefix of an event line
type Label string

const (
	LabelSkip           Label = "SKIP"
	LabelError          Label = "ERROR"
	LabelDangling       Label = "DANGLING-SYMLINK"
	LabelSpecial        Label = "NOT_A_FILE_OR_DIR"
	LabelSymlinkStatus  Label = "DIFFERENT-SYMLINK-STATUS"
	LabelDifferentFile  Label = "DIFFERENT-FILE"
	LabelSymlinkTarget  Label = "DIFFERENT-SYMLINK-TARGET"
	LabelSymlink        Label = "SYMLINK"
	LabelDifferentFS    Label = "DIFFERENT-FS"
	LabelDebug          Label = "DEBUG"
	LabelMissingFile    Label = "MISSING-FILE"
	LabelMissingDir     Label = "MISSING-DIR"
	LabelMissingSymlink Label = "MISSING-SYMLINK"
	LabelExtraFile      Label = "EXTRA-FILE"
	LabelExtraDir       Label = "EXTRA-DIR"
	LabelExtraSymlink   Label = "EXTRA-SYMLINK"
)

// Reason qualifies a DIFFERENT-FILE finding
type Reason string

const (
	ReasonSize   Reason = "SIZE"
	ReasonSample Reason = "SAMPLE"
	ReasonHash   Reason = "HASH"
	ReasonType   Reason = "TYPE"
)

// Finding is one event emitted during verification
type Finding struct {
	Label  Label  `json:"label"`
	Reason Reason `json:"reason,omitempty"`
	Path   string `json:"path,omitempty"`
	// Detail is the parenthesised suffix, or the whole message for ERROR and DEBUG
	Detail string `json:"detail,omitempty"`
}

// Errorf builds an ERROR finding about path
func Errorf(path, format string, args ...interface{}) Finding {
	return Finding{Label: LabelError, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// Debugf builds a DEBUG finding
func Debugf(format string, args ...interface{}) Finding {
	return Finding{Label: LabelDebug, Detail: fmt.Sprintf(format, args...)}
}

// String renders the finding as an output line without the trailing newline
func (f Finding) String() string {
	head := string(f.Label)
	if f.Reason != "" {
		head += " [" + string(f.Reason) + "]"
	}
	if f.Label == LabelError || f.Label == LabelDebug {
		return head + ": " + f.Detail
	}
	line := head + ": [" + f.Path + "]"
	if f.Detail != "" {
		line += " (" + f.Detail + ")"
	}
	return line
}

// IsDebug reports whether the finding is diagnostic chatter rather than a result
func (f Finding) IsDebug() bool {
	return f.Label == LabelDebug
}
