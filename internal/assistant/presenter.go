package assistant

// Presenter is the surface that renders assistant output. Every method must be
// safe to call from any goroutine and must apply updates in call order.
type Presenter interface {
	SetStatus(text string)
	AppendToken(fragment string)
	ClearOutput()
	SetMode(name string)
}

// Status lines shown on the surface.
const (
	StatusCapturing          = "Capturing screen..."
	StatusSelecting          = "Click and drag to select a region..."
	StatusSelectionCancelled = "Selection cancelled"
	StatusCaptureFailed      = "Screen capture failed — check log for details"
	StatusClipboardEmpty     = "Clipboard is empty — copy some text first"
	StatusError              = "Error — check log for details"
)

// FollowUpSeparator is appended to the output pane before a follow-up reply.
const FollowUpSeparator = "\n\n─── Follow-up ───\n\n"

func askingStatus(model string) string {
	return "Asking " + model + "..."
}

// DoneStatus is the idle status line for the given mode.
func DoneStatus(mode string) string {
	return "Done | [" + mode + "]"
}

func switchedStatus(mode string) string {
	return "Switched to [" + mode + "] mode"
}

func errorToken(err error) string {
	return "\nError: " + err.Error() + "\n"
}
