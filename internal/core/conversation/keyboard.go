package conversation

// KeyboardKind names one of the fixed selectable-button layouts. Rendering
// them into transport markup belongs to the transport adapter; the router
// only emits the intent.
type KeyboardKind int

const (
	KeyboardNone KeyboardKind = iota
	KeyboardInterface
	KeyboardMain
	KeyboardLanguages
	KeyboardDelivery
)

// KeyboardSpec is everything an adapter needs to render a keyboard: which
// layout, in which interface language, and whether the language list should
// carry a confirm row (multi-select mode).
type KeyboardSpec struct {
	Kind        KeyboardKind
	Lang        string
	WithConfirm bool
}

// Reply is one outbound message the router wants sent.
type Reply struct {
	Text     string
	Keyboard KeyboardSpec
}
