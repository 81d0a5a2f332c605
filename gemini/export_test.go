package gemini

// NewStream exposes newStream for testing stream assembly against
// synthetic SDK iterators.
var NewStream = newStream
