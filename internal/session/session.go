// Package session holds per-user conversational state.
//
// Sessions are in-memory only: a process restart loses them, which is
// acceptable for conversational state. Upload and extraction fields are
// reset after each completed delivery cycle; language preferences persist
// for the lifetime of the process.
package session

import (
	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/locale"
)

// State is the single explicit conversation state. It replaces the original
// tangle of awaiting_* booleans so impossible combinations cannot exist.
type State int

const (
	// StateAwaitingInterfaceLanguage is the initial state on first contact
	// and after an explicit re-entry into the interface-language sub-flow.
	StateAwaitingInterfaceLanguage State = iota

	// StateAwaitingOCRLanguage is the idle main-menu state: onboarding is
	// done and the user is expected to pick a recognition language or
	// upload a file.
	StateAwaitingOCRLanguage

	// StateMultiSelecting means the user is composing a multi-language
	// OCR selection.
	StateMultiSelecting

	// StateAwaitingDeliveryChoice means at least one file is staged and
	// free text is interpreted as a delivery-method selection.
	StateAwaitingDeliveryChoice
)

func (s State) String() string {
	switch s {
	case StateAwaitingInterfaceLanguage:
		return "awaiting_interface_language"
	case StateAwaitingOCRLanguage:
		return "awaiting_ocr_language"
	case StateMultiSelecting:
		return "multi_selecting"
	case StateAwaitingDeliveryChoice:
		return "awaiting_delivery_choice"
	default:
		return "unknown"
	}
}

// DeliveryChoice is how extracted text goes back to the user.
type DeliveryChoice int

const (
	DeliveryUnset DeliveryChoice = iota
	DeliveryInline
	DeliveryFile
)

// StagedFile describes one uploaded file staged on disk. Immutable once
// created.
type StagedFile struct {
	// OriginalName is the untrusted client-supplied filename, used only
	// for display keys and user-facing messages.
	OriginalName string

	// SafeName is the sanitized, collision-resolved on-disk filename.
	SafeName string

	// Path is the absolute path inside the session's staging directory.
	Path string

	// Kind is the extraction strategy tag, resolved at staging time.
	Kind extract.FileKind
}

// UserSession is the mutable per-user state. All access goes through
// Store.Update / Store.View, which serialize mutations per user.
type UserSession struct {
	UserID int64

	State         State
	InterfaceLang string

	// OCRLang is a tesseract language code, possibly composite ("eng+fra").
	OCRLang string

	// PendingLangs is the ordered, de-duplicated multi-select working set.
	// Only meaningful while State is StateMultiSelecting.
	PendingLangs []string

	// StagingDir is non-empty iff Files is non-empty.
	StagingDir string
	Files      []StagedFile

	Delivery DeliveryChoice
}

func newUserSession(userID int64, defaultOCRLang string) *UserSession {
	return &UserSession{
		UserID:        userID,
		State:         StateAwaitingInterfaceLanguage,
		InterfaceLang: locale.DefaultLanguage,
		OCRLang:       defaultOCRLang,
	}
}

// AddPendingLang appends an OCR language code to the multi-select set.
// Re-adding an already selected code is a no-op.
func (s *UserSession) AddPendingLang(code string) bool {
	for _, c := range s.PendingLangs {
		if c == code {
			return false
		}
	}
	s.PendingLangs = append(s.PendingLangs, code)
	return true
}

// EnterMultiSelect switches to multi-select mode with an empty selection.
func (s *UserSession) EnterMultiSelect() {
	s.State = StateMultiSelecting
	s.PendingLangs = nil
}

// ResetCycle clears the upload and delivery fields after a completed cycle
// and returns the session to the idle menu state. Language preferences are
// kept. Removing the staging directory from disk is the caller's job; the
// two happen together, exactly once per cycle.
func (s *UserSession) ResetCycle() {
	s.StagingDir = ""
	s.Files = nil
	s.Delivery = DeliveryUnset
	s.State = StateAwaitingOCRLanguage
}
